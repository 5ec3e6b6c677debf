// Package manifest loads a list of certificate request descriptors
// with shared defaults and reconciles them.
package manifest

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/csrerr"
	"github.com/effective-security/xcsr/reconciler"
	"github.com/jinzhu/copier"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// PasswordFilePrefix specifies that the password is loaded from a file
const PasswordFilePrefix = "file:"

// Manifest is a list of resources with shared defaults
type Manifest struct {
	// Defaults are applied to every resource for fields it does not set
	Defaults reconciler.Descriptor `json:"defaults" yaml:"defaults"`
	// Resources to reconcile
	Resources []*reconciler.Descriptor `json:"resources" yaml:"resources"`
}

// Result is the result of a resource in the manifest
type Result struct {
	Path    string             `json:"path" yaml:"path"`
	State   string             `json:"state,omitempty" yaml:"state,omitempty"`
	Outcome reconciler.Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Error   string             `json:"error,omitempty" yaml:"error,omitempty"`
}

// Load returns the manifest from a JSON or YAML file.
// Password values with file: prefix are replaced with the file content,
// relative names are resolved from the manifest folder.
func Load(fs afero.Fs, filename string) (*Manifest, error) {
	b, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, csrerr.Mark(errors.WithStack(err), csrerr.ErrIO, "unable to read manifest %q", filename)
	}

	m := new(Manifest)
	if strings.HasSuffix(filename, ".json") {
		err = json.Unmarshal(b, m)
	} else {
		err = yaml.Unmarshal(b, m)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to decode file: %s", filename)
	}

	dir := filepath.Dir(filename)
	if err = resolvePassword(fs, dir, &m.Defaults); err != nil {
		return nil, err
	}
	for _, r := range m.Resources {
		if r == nil {
			continue
		}
		if err = resolvePassword(fs, dir, r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func resolvePassword(fs afero.Fs, dir string, d *reconciler.Descriptor) error {
	if !strings.HasPrefix(d.Password, PasswordFilePrefix) {
		return nil
	}
	file := strings.TrimPrefix(d.Password, PasswordFilePrefix)
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	b, err := afero.ReadFile(fs, file)
	if err != nil {
		return csrerr.Mark(errors.WithStack(err), csrerr.ErrIO, "unable to read password file %q", file)
	}
	d.Password = strings.TrimSpace(string(b))
	return nil
}

// Descriptors returns the resources merged with the defaults.
// Zero values of a resource do not override the defaults.
func (m *Manifest) Descriptors() ([]*reconciler.Descriptor, error) {
	list := make([]*reconciler.Descriptor, 0, len(m.Resources))
	for i, r := range m.Resources {
		if r == nil {
			return nil, errors.Errorf("resource %d: empty descriptor", i)
		}
		d := m.Defaults
		if err := copier.CopyWithOption(&d, r, copier.Option{IgnoreEmpty: true}); err != nil {
			return nil, errors.WithMessagef(err, "resource %d", i)
		}
		list = append(list, d.WithDefaults())
	}
	return list, nil
}

// Validate returns error if a resource is not valid,
// or more than one resource has the same path
func (m *Manifest) Validate() error {
	list, err := m.Descriptors()
	if err != nil {
		return err
	}
	paths := map[string]int{}
	for i, d := range list {
		if _, err := d.Validate(); err != nil {
			return errors.WithMessagef(err, "resource %d", i)
		}
		p := filepath.Clean(d.Path)
		if j, ok := paths[p]; ok {
			return errors.Errorf("resource %d: duplicate path %q, see resource %d", i, d.Path, j)
		}
		paths[p] = i
	}
	return nil
}

// Apply reconciles the resources concurrently, at most parallel at a time.
// A failed resource does not stop the others,
// its error is reported in the Result.
// The results are in the order of the resources.
func (m *Manifest) Apply(ctx context.Context, r *reconciler.Reconciler, parallel int) ([]*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	list, err := m.Descriptors()
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(list))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for i, d := range list {
		g.Go(func() error {
			res := &Result{Path: d.Path}
			results[i] = res

			if err := ctx.Err(); err != nil {
				res.Error = err.Error()
				return nil
			}

			applied, err := r.Apply(d)
			if err != nil {
				res.Error = err.Error()
				return nil
			}
			res.State = applied.State.String()
			res.Outcome = applied.Outcome
			return nil
		})
	}

	return results, g.Wait()
}

// Failed returns the number of failed results
func Failed(results []*Result) int {
	count := 0
	for _, r := range results {
		if r.Error != "" {
			count++
		}
	}
	return count
}
