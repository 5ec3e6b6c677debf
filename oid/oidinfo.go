package oid

import (
	"crypto/x509"
	"encoding/asn1"
	"sort"
	"strings"
)

// KeyUsage contains a mapping of OpenSSL key usage names to key usages.
var KeyUsage = map[string]x509.KeyUsage{
	"digitalSignature": x509.KeyUsageDigitalSignature,
	"nonRepudiation":   x509.KeyUsageContentCommitment,
	"keyEncipherment":  x509.KeyUsageKeyEncipherment,
	"dataEncipherment": x509.KeyUsageDataEncipherment,
	"keyAgreement":     x509.KeyUsageKeyAgreement,
	"keyCertSign":      x509.KeyUsageCertSign,
	"cRLSign":          x509.KeyUsageCRLSign,
	"encipherOnly":     x509.KeyUsageEncipherOnly,
	"decipherOnly":     x509.KeyUsageDecipherOnly,
}

// ExtKeyUsage contains a mapping of OpenSSL extended key usage names
// to their OIDs.
var ExtKeyUsage = map[string]asn1.ObjectIdentifier{
	"anyExtendedKeyUsage": {2, 5, 29, 37, 0},
	"serverAuth":          {1, 3, 6, 1, 5, 5, 7, 3, 1},
	"clientAuth":          {1, 3, 6, 1, 5, 5, 7, 3, 2},
	"codeSigning":         {1, 3, 6, 1, 5, 5, 7, 3, 3},
	"emailProtection":     {1, 3, 6, 1, 5, 5, 7, 3, 4},
	"ipsecEndSystem":      {1, 3, 6, 1, 5, 5, 7, 3, 5},
	"ipsecTunnel":         {1, 3, 6, 1, 5, 5, 7, 3, 6},
	"ipsecUser":           {1, 3, 6, 1, 5, 5, 7, 3, 7},
	"timeStamping":        {1, 3, 6, 1, 5, 5, 7, 3, 8},
	"OCSPSigning":         {1, 3, 6, 1, 5, 5, 7, 3, 9},
}

// well-known OIDs
var (
	ExtensionSubjectKeyID          = asn1.ObjectIdentifier{2, 5, 29, 14}
	ExtensionKeyUsage              = asn1.ObjectIdentifier{2, 5, 29, 15}
	ExtensionSubjectAltName        = asn1.ObjectIdentifier{2, 5, 29, 17}
	ExtensionBasicConstraints      = asn1.ObjectIdentifier{2, 5, 29, 19}
	ExtensionNameConstraints       = asn1.ObjectIdentifier{2, 5, 29, 30}
	ExtensionCRLDistributionPoints = asn1.ObjectIdentifier{2, 5, 29, 31}
	ExtensionCertificatePolicies   = asn1.ObjectIdentifier{2, 5, 29, 32}
	ExtensionAuthorityKeyID        = asn1.ObjectIdentifier{2, 5, 29, 35}
	ExtensionExtendedKeyUsage      = asn1.ObjectIdentifier{2, 5, 29, 37}
	ExtensionAuthorityInfoAccess   = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 1}

	// AttributeExtensionRequest is PKCS#9 extensionRequest
	AttributeExtensionRequest = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 14}
	// AttributeChallengePassword is PKCS#9 challengePassword
	AttributeChallengePassword = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 7}

	PublicKeyRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	PublicKeyDSA   = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}
	PublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

	SignatureDSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 3}
	SignatureDSAWithSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 2}

	NameEmailAddress    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
	NameSurname         = asn1.ObjectIdentifier{2, 5, 4, 4}
	NameCN              = asn1.ObjectIdentifier{2, 5, 4, 3}
	NameSerial          = asn1.ObjectIdentifier{2, 5, 4, 5}
	NameC               = asn1.ObjectIdentifier{2, 5, 4, 6}
	NameL               = asn1.ObjectIdentifier{2, 5, 4, 7}
	NameST              = asn1.ObjectIdentifier{2, 5, 4, 8}
	NameStreet          = asn1.ObjectIdentifier{2, 5, 4, 9}
	NameO               = asn1.ObjectIdentifier{2, 5, 4, 10}
	NameOU              = asn1.ObjectIdentifier{2, 5, 4, 11}
	NameTitle           = asn1.ObjectIdentifier{2, 5, 4, 12}
	NamePostal          = asn1.ObjectIdentifier{2, 5, 4, 17}
	NameName            = asn1.ObjectIdentifier{2, 5, 4, 41}
	NameGivenName       = asn1.ObjectIdentifier{2, 5, 4, 42}
	NameInitials        = asn1.ObjectIdentifier{2, 5, 4, 43}
	NameDNQualifier     = asn1.ObjectIdentifier{2, 5, 4, 46}
	NamePseudonym       = asn1.ObjectIdentifier{2, 5, 4, 65}
	NameUserID          = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 1}
	NameDomainComponent = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}
)

// DistinguishedName maps OpenSSL short and long attribute names to OIDs
var DistinguishedName = map[string]asn1.ObjectIdentifier{
	"C":                      NameC,
	"countryName":            NameC,
	"ST":                     NameST,
	"stateOrProvinceName":    NameST,
	"L":                      NameL,
	"localityName":           NameL,
	"O":                      NameO,
	"organizationName":       NameO,
	"OU":                     NameOU,
	"organizationalUnitName": NameOU,
	"CN":                     NameCN,
	"commonName":             NameCN,
	"emailAddress":           NameEmailAddress,
	"serialNumber":           NameSerial,
	"street":                 NameStreet,
	"streetAddress":          NameStreet,
	"postalCode":             NamePostal,
	"title":                  NameTitle,
	"SN":                     NameSurname,
	"surname":                NameSurname,
	"GN":                     NameGivenName,
	"givenName":              NameGivenName,
	"initials":               NameInitials,
	"name":                   NameName,
	"dnQualifier":            NameDNQualifier,
	"pseudonym":              NamePseudonym,
	"UID":                    NameUserID,
	"userId":                 NameUserID,
	"DC":                     NameDomainComponent,
	"domainComponent":        NameDomainComponent,
}

// DisplayName provides OID name
var DisplayName = map[string]string{
	"2.5.29.14":            "Subject KeyID",
	"2.5.29.15":            "Key Usage",
	"2.5.29.17":            "Subject Alt Name",
	"2.5.29.19":            "Basic Constraints",
	"2.5.29.30":            "Name Constraints",
	"2.5.29.31":            "CRL Distribution Point",
	"2.5.29.32":            "Certificate Policies",
	"2.5.29.35":            "Authority KeyID",
	"2.5.29.37":            "Extended KeyUsage",
	"1.3.6.1.5.5.7.1.1":    "Authority Info Access",
	"1.2.840.113549.1.9.7": "Challenge Password",
}

// LookupName returns the OID of a distinguished name attribute.
// A numeric prefix used by OpenSSL for multi-valued fields, like "0.OU",
// is ignored, and a dotted OID is accepted as is.
func LookupName(name string) (asn1.ObjectIdentifier, bool) {
	if id, ok := DistinguishedName[name]; ok {
		return id, true
	}
	if idx := strings.IndexByte(name, '.'); idx > 0 && isDigits(name[:idx]) {
		if id, ok := DistinguishedName[name[idx+1:]]; ok {
			return id, true
		}
	}
	if id, err := Parse(name); err == nil {
		return id, true
	}
	return nil, false
}

// Parse returns OID from the dotted string
func Parse(s string) (asn1.ObjectIdentifier, error) {
	segments := strings.Split(s, ".")
	if len(segments) < 2 {
		return nil, errInvalidOID(s)
	}
	id := make(asn1.ObjectIdentifier, len(segments))
	for i, seg := range segments {
		if seg == "" || !isDigits(seg) || len(seg) > 9 {
			return nil, errInvalidOID(s)
		}
		n := 0
		for _, c := range seg {
			n = n*10 + int(c-'0')
		}
		id[i] = n
	}
	return id, nil
}

// KeyUsages returns sorted list of names
func KeyUsages(ku x509.KeyUsage) []string {
	list := make([]string, 0, len(KeyUsage))

	for k, v := range KeyUsage {
		if ku&v == v {
			list = append(list, k)
		}
	}
	sort.Strings(list)
	return list
}

// ExtKeyUsageName returns the OpenSSL name of the EKU OID,
// or its dotted form if it is not known.
func ExtKeyUsageName(id asn1.ObjectIdentifier) string {
	for k, v := range ExtKeyUsage {
		if v.Equal(id) {
			return k
		}
	}
	return id.String()
}

// Strings returns list of OID string values
func Strings(ids ...asn1.ObjectIdentifier) []string {
	list := make([]string, 0, len(ids))

	for _, k := range ids {
		list = append(list, k.String())
	}

	return list
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type errInvalidOID string

func (e errInvalidOID) Error() string {
	return "invalid OID: " + string(e)
}
