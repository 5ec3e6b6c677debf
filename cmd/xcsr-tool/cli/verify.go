package cli

import (
	"github.com/effective-security/xcsr/cryptoprov"
	"github.com/effective-security/xcsr/csr"
	"github.com/effective-security/xlog"
)

// VerifyCmd checks that a certificate request is signed by the private key
type VerifyCmd struct {
	Csr            string `required:"" help:"Location of the certificate request"`
	PrivateKey     string `required:"" help:"Location of the private key"`
	Password       string `help:"Passphrase of the private key" env:"XCSR_PASSWORD"`
	Authentication string `help:"Key algorithm: RSA, EC or DSA" default:"RSA"`
}

// Run the command
func (a *VerifyCmd) Run(ctx *Cli) error {
	algo, err := cryptoprov.ParseAlgorithm(a.Authentication)
	if err != nil {
		return err
	}

	var password []byte
	if a.Password != "" {
		password = []byte(a.Password)
	}

	key, err := cryptoprov.LoadPrivateKey(ctx.FS(), a.PrivateKey, password, algo)
	if err != nil {
		return err
	}
	defer key.Destroy()

	valid, err := csr.Verify(ctx.FS(), a.Csr, key)
	if err != nil {
		return err
	}
	logger.KV(xlog.DEBUG, "csr", a.Csr, "algorithm", algo, "valid", valid)

	res := struct {
		Valid bool `json:"valid"`
	}{
		Valid: valid,
	}
	return ctx.WriteJSON(&res)
}
