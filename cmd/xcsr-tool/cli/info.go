package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/certutil"
	"github.com/effective-security/xcsr/oid"
)

// InfoCmd prints information about a certificate request
type InfoCmd struct {
	Csr string `kong:"arg" required:"" help:"CSR file name, or - for stdin"`
}

type requestInfo struct {
	Subject            string   `json:"subject"`
	KeyType            string   `json:"key_type"`
	KeySize            int      `json:"key_size"`
	SignatureAlgorithm string   `json:"signature_algorithm"`
	DNSNames           []string `json:"dns_names,omitempty"`
	EmailAddresses     []string `json:"email_addresses,omitempty"`
	IPAddresses        []string `json:"ip_addresses,omitempty"`
	URIs               []string `json:"uris,omitempty"`
	Extensions         []string `json:"extensions,omitempty"`
}

// Run the command
func (a *InfoCmd) Run(ctx *Cli) error {
	b, err := ctx.ReadFile(a.Csr)
	if err != nil {
		return errors.WithMessage(err, "unable to load CSR file")
	}

	req, err := certutil.ParseCSRFromPEM(b)
	if err != nil {
		return err
	}

	ki, err := certutil.NewKeyInfo(req.PublicKey)
	if err != nil {
		return err
	}

	info := &requestInfo{
		Subject:            certutil.NameToString(&req.Subject),
		KeyType:            ki.Type,
		KeySize:            ki.KeySize,
		SignatureAlgorithm: req.SignatureAlgorithm.String(),
		DNSNames:           req.DNSNames,
		EmailAddresses:     req.EmailAddresses,
	}
	for _, ip := range req.IPAddresses {
		info.IPAddresses = append(info.IPAddresses, ip.String())
	}
	for _, u := range req.URIs {
		info.URIs = append(info.URIs, u.String())
	}
	for _, ext := range req.Extensions {
		name := ext.Id.String()
		if dn, ok := oid.DisplayName[name]; ok {
			name = dn
		}
		if ext.Critical {
			name += " (critical)"
		}
		info.Extensions = append(info.Extensions, name)
	}

	return ctx.WriteJSON(info)
}
