package csr

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"net"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/certutil"
	"github.com/effective-security/xcsr/oid"
	"gopkg.in/ini.v1"
)

// OpenSSL req configuration keys
const (
	sectionReq           = "req"
	keyDistinguishedName = "distinguished_name"
	keyReqExtensions     = "req_extensions"
	keyPrompt            = "prompt"
	keyDefaultMD         = "default_md"
	keyEncryptKey        = "encrypt_key"

	suffixDefault = "_default"
	suffixMin     = "_min"
	suffixMax     = "_max"
)

// ParseConfig returns Request from OpenSSL req configuration.
//
// The subject is read from the distinguished_name section. In prompt mode
// the <attribute>_default values are used and attributes without a default
// are skipped, otherwise each key is an attribute.
// The extensions are read from the req_extensions section.
func ParseConfig(data []byte) (*Request, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:       "=",
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to parse configuration")
	}

	reqSec, err := cfg.GetSection(sectionReq)
	if err != nil {
		return nil, errors.Errorf("missing [%s] section", sectionReq)
	}

	r := new(Request)

	dnName := reqSec.Key(keyDistinguishedName).String()
	if dnName == "" {
		return nil, errors.Errorf("missing %s in [%s] section", keyDistinguishedName, sectionReq)
	}
	dnSec, err := cfg.GetSection(dnName)
	if err != nil {
		return nil, errors.Errorf("missing [%s] section", dnName)
	}
	if err = parseDistinguishedName(r, dnSec, promptMode(reqSec, dnSec)); err != nil {
		return nil, err
	}

	r.Digest, err = parseDigest(reqSec.Key(keyDefaultMD).String())
	if err != nil {
		return nil, err
	}

	if reqSec.HasKey(keyEncryptKey) {
		encrypt, err := reqSec.Key(keyEncryptKey).Bool()
		if err != nil {
			return nil, errors.Errorf("invalid %s value: %q", keyEncryptKey, reqSec.Key(keyEncryptKey).String())
		}
		r.EncryptKey = &encrypt
	}

	if extName := reqSec.Key(keyReqExtensions).String(); extName != "" {
		extSec, err := cfg.GetSection(extName)
		if err != nil {
			return nil, errors.Errorf("missing [%s] section", extName)
		}
		if err = parseExtensions(r, cfg, extSec); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// promptMode returns true if the distinguished_name section is in prompt
// format: prompt is not "no" and either set explicitly, or the section
// has _default, _min or _max keys.
func promptMode(req, dn *ini.Section) bool {
	if req.HasKey(keyPrompt) {
		return !strings.EqualFold(req.Key(keyPrompt).String(), "no")
	}
	for _, k := range dn.Keys() {
		name := k.Name()
		if strings.HasSuffix(name, suffixDefault) ||
			strings.HasSuffix(name, suffixMin) ||
			strings.HasSuffix(name, suffixMax) {
			return true
		}
	}
	return false
}

func parseDistinguishedName(r *Request, sec *ini.Section, prompt bool) error {
	for _, k := range sec.Keys() {
		name := k.Name()
		if prompt {
			if !strings.HasSuffix(name, suffixDefault) {
				continue
			}
			name = strings.TrimSuffix(name, suffixDefault)
		} else if strings.HasSuffix(name, suffixDefault) ||
			strings.HasSuffix(name, suffixMin) ||
			strings.HasSuffix(name, suffixMax) {
			continue
		}

		value := strings.TrimSpace(k.String())
		if value == "" {
			continue
		}

		id, ok := oid.LookupName(name)
		if !ok {
			return errors.Errorf("unknown subject attribute: %q", name)
		}
		if _, err := attributeValue(id, value); err != nil {
			return err
		}
		r.AddAttribute(id, value)
	}
	return nil
}

func parseDigest(md string) (crypto.Hash, error) {
	switch strings.ToLower(md) {
	case "", "default":
		return 0, nil
	case "sha256":
		return crypto.SHA256, nil
	case "sha384":
		return crypto.SHA384, nil
	case "sha512":
		return crypto.SHA512, nil
	}
	return 0, errors.Errorf("unsupported %s: %q", keyDefaultMD, md)
}

func parseExtensions(r *Request, cfg *ini.File, sec *ini.Section) error {
	for _, k := range sec.Keys() {
		name := k.Name()
		critical, values := splitCritical(k.String())

		var ext pkix.Extension
		var err error

		switch name {
		case "basicConstraints":
			ext, err = parseBasicConstraints(values, critical)
		case "keyUsage":
			ext, err = parseKeyUsage(values, critical)
		case "extendedKeyUsage":
			ext, err = parseExtKeyUsage(values, critical)
		case "subjectAltName":
			ext, err = parseSubjectAltName(r, cfg, values, critical)
		case "subjectKeyIdentifier":
			if len(values) != 1 || values[0] != "hash" {
				return errors.Errorf("unsupported subjectKeyIdentifier value: %q", k.String())
			}
			if certutil.HasExtension(r.Extensions, oid.ExtensionSubjectKeyID) || r.SubjectKeyID {
				return errors.New("duplicate extension: subjectKeyIdentifier")
			}
			r.SubjectKeyID = true
			continue
		default:
			id, perr := oid.Parse(name)
			if perr != nil {
				return errors.Errorf("unsupported extension: %q", name)
			}
			ext, err = parseRawExtension(id, values, critical)
		}
		if err != nil {
			return errors.WithMessagef(err, "invalid %s", name)
		}
		if err = r.AddExtension(ext); err != nil {
			return err
		}
	}
	return nil
}

// splitCritical splits comma separated values and removes "critical" marker
func splitCritical(value string) (bool, []string) {
	var critical bool
	var list []string
	for _, v := range strings.Split(value, ",") {
		v = strings.TrimSpace(v)
		switch {
		case v == "":
		case v == "critical":
			critical = true
		default:
			list = append(list, v)
		}
	}
	return critical, list
}

func parseBasicConstraints(values []string, critical bool) (pkix.Extension, error) {
	bc := BasicConstraints{MaxPathLen: -1}
	for _, v := range values {
		name, val, _ := strings.Cut(v, ":")
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ca":
			switch strings.ToUpper(strings.TrimSpace(val)) {
			case "TRUE":
				bc.IsCA = true
			case "FALSE":
				bc.IsCA = false
			default:
				return pkix.Extension{}, errors.Errorf("invalid CA value: %q", val)
			}
		case "pathlen":
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || n < 0 {
				return pkix.Extension{}, errors.Errorf("invalid pathlen value: %q", val)
			}
			bc.MaxPathLen = n
		default:
			return pkix.Extension{}, errors.Errorf("unsupported value: %q", v)
		}
	}
	if !bc.IsCA && bc.MaxPathLen >= 0 {
		return pkix.Extension{}, errors.New("pathlen requires CA:TRUE")
	}
	return BasicConstraintsExtension(bc, critical)
}

func parseKeyUsage(values []string, critical bool) (pkix.Extension, error) {
	if len(values) == 0 {
		return pkix.Extension{}, errors.New("empty value")
	}
	var ku x509.KeyUsage
	for _, v := range values {
		u, ok := oid.KeyUsage[v]
		if !ok {
			return pkix.Extension{}, errors.Errorf("unsupported key usage: %q", v)
		}
		ku |= u
	}
	return KeyUsageExtension(ku, critical)
}

func parseExtKeyUsage(values []string, critical bool) (pkix.Extension, error) {
	if len(values) == 0 {
		return pkix.Extension{}, errors.New("empty value")
	}
	ids := make([]asn1.ObjectIdentifier, 0, len(values))
	for _, v := range values {
		id, ok := oid.ExtKeyUsage[v]
		if !ok {
			parsed, err := oid.Parse(v)
			if err != nil {
				return pkix.Extension{}, errors.Errorf("unsupported extended key usage: %q", v)
			}
			id = parsed
		}
		ids = append(ids, id)
	}
	return ExtKeyUsageExtension(ids, critical)
}

func parseSubjectAltName(r *Request, cfg *ini.File, values []string, critical bool) (pkix.Extension, error) {
	san := new(SubjectAltName)
	for _, v := range values {
		if strings.HasPrefix(v, "@") {
			secName := strings.TrimSpace(v[1:])
			sec, err := cfg.GetSection(secName)
			if err != nil {
				return pkix.Extension{}, errors.Errorf("missing [%s] section", secName)
			}
			for _, k := range sec.Keys() {
				// DNS.1 = example.com
				typ, _, _ := strings.Cut(k.Name(), ".")
				if err := addGeneralName(r, san, typ, strings.TrimSpace(k.String())); err != nil {
					return pkix.Extension{}, err
				}
			}
			continue
		}

		typ, val, ok := strings.Cut(v, ":")
		if !ok {
			return pkix.Extension{}, errors.Errorf("invalid value: %q", v)
		}
		if err := addGeneralName(r, san, strings.TrimSpace(typ), strings.TrimSpace(val)); err != nil {
			return pkix.Extension{}, err
		}
	}
	if san.Empty() {
		return pkix.Extension{}, errors.New("empty value")
	}
	return san.Extension(critical)
}

func addGeneralName(r *Request, san *SubjectAltName, typ, value string) error {
	if value == "" {
		return errors.Errorf("empty %s name", typ)
	}
	switch typ {
	case "DNS":
		san.DNSNames = append(san.DNSNames, value)
	case "IP":
		ip := net.ParseIP(value)
		if ip == nil {
			return errors.Errorf("invalid IP address: %q", value)
		}
		san.IPAddresses = append(san.IPAddresses, ip)
	case "email":
		if value == "copy" {
			for _, a := range r.Subject {
				if a.Type.Equal(oid.NameEmailAddress) {
					san.EmailAddresses = append(san.EmailAddresses, a.Value)
				}
			}
			return nil
		}
		san.EmailAddresses = append(san.EmailAddresses, value)
	case "URI":
		return san.AddURI(value)
	default:
		return errors.Errorf("unsupported subject alt name type: %q", typ)
	}
	return nil
}

// parseRawExtension parses DER:<hex> value
func parseRawExtension(id asn1.ObjectIdentifier, values []string, critical bool) (pkix.Extension, error) {
	if len(values) != 1 || !strings.HasPrefix(values[0], "DER:") {
		return pkix.Extension{}, errors.New("only DER:<hex> values are supported")
	}
	val, err := hex.DecodeString(strings.ReplaceAll(values[0][4:], ":", ""))
	if err != nil || len(val) == 0 {
		return pkix.Extension{}, errors.Errorf("invalid DER value: %q", values[0])
	}
	return pkix.Extension{Id: id, Critical: critical, Value: val}, nil
}
