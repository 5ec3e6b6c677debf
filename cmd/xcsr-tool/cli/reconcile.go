package cli

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/manifest"
	"github.com/effective-security/xcsr/reconciler"
	"github.com/effective-security/xlog"
)

type result struct {
	Path    string `json:"path"`
	State   string `json:"state,omitempty"`
	Outcome string `json:"outcome"`
}

// EnsureCmd reconciles a certificate request
type EnsureCmd struct {
	Path           string `required:"" help:"Location of the certificate request"`
	PrivateKey     string `help:"Location of the private key, by default the request path with .key extension"`
	Password       string `help:"Passphrase of the private key" env:"XCSR_PASSWORD"`
	Authentication string `help:"Key algorithm: RSA, EC or DSA" default:"RSA"`
	Template       string `help:"Location of the subject template, by default the request path with .cnf extension"`
	Force          bool   `help:"Regenerate the request if it is not signed by the private key"`
	Encrypted      *bool  `help:"Protect the written private key with the passphrase, true by default"`
	KeyOut         string `help:"Location to write the private key"`
}

// Run the command
func (a *EnsureCmd) Run(ctx *Cli) error {
	d := &reconciler.Descriptor{
		Path:           a.Path,
		PrivateKeyPath: a.PrivateKey,
		Password:       a.Password,
		Authentication: a.Authentication,
		Template:       a.Template,
		Force:          a.Force,
		Encrypted:      a.Encrypted,
		KeyOut:         a.KeyOut,
	}

	started := time.Now()
	res, err := ctx.Reconciler().Apply(d)
	if err != nil {
		logger.KV(xlog.ERROR, "path", a.Path, "algorithm", a.Authentication, "err", err.Error())
		return err
	}
	logger.KV(xlog.INFO,
		"path", res.Path,
		"algorithm", a.Authentication,
		"state", res.State,
		"outcome", res.Outcome,
		"duration", time.Since(started))

	return ctx.WriteJSON(&result{
		Path:    res.Path,
		State:   res.State.String(),
		Outcome: string(res.Outcome),
	})
}

// RemoveCmd removes a certificate request
type RemoveCmd struct {
	Path string `required:"" help:"Location of the certificate request"`
}

// Run the command
func (a *RemoveCmd) Run(ctx *Cli) error {
	outcome, err := ctx.Reconciler().Remove(&reconciler.Descriptor{Path: a.Path})
	if err != nil {
		logger.KV(xlog.ERROR, "path", a.Path, "err", err.Error())
		return err
	}
	logger.KV(xlog.INFO, "path", a.Path, "outcome", outcome)

	return ctx.WriteJSON(&result{
		Path:    a.Path,
		Outcome: string(outcome),
	})
}

// ApplyCmd reconciles resources of a manifest
type ApplyCmd struct {
	Manifest string `required:"" help:"Location of the manifest file, YAML or JSON"`
	Parallel int    `help:"Number of resources to reconcile concurrently" default:"4"`
}

// Run the command
func (a *ApplyCmd) Run(ctx *Cli) error {
	m, err := manifest.Load(ctx.FS(), a.Manifest)
	if err != nil {
		return err
	}

	results, err := m.Apply(ctx.Context(), ctx.Reconciler(), a.Parallel)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Error != "" {
			logger.KV(xlog.ERROR, "path", r.Path, "err", r.Error)
		} else {
			logger.KV(xlog.INFO, "path", r.Path, "state", r.State, "outcome", r.Outcome)
		}
	}

	if err = ctx.WriteJSON(results); err != nil {
		return err
	}

	if failed := manifest.Failed(results); failed > 0 {
		return errors.Errorf("%d of %d resources failed", failed, len(results))
	}
	return nil
}
