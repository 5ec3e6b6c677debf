package csr

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/csrerr"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// LoadTemplate returns Request from the template file.
// Files with .yaml, .yml or .json extension are request profiles,
// any other file is OpenSSL req configuration.
func LoadTemplate(fs afero.Fs, filename string) (*Request, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, csrerr.Mark(errors.WithStack(err), csrerr.ErrTemplate, "unable to read template %q", filename)
	}

	req, err := ParseTemplate(data, filepath.Ext(filename))
	if err != nil {
		return nil, csrerr.Mark(err, csrerr.ErrTemplate, "invalid template %q", filename)
	}
	return req, nil
}

// ParseTemplate returns Request from the template content,
// the format is chosen by the file extension.
func ParseTemplate(data []byte, ext string) (*Request, error) {
	var req *Request
	var err error

	switch strings.ToLower(ext) {
	case ".json":
		profile := new(CertificateRequest)
		if err = json.Unmarshal(data, profile); err != nil {
			return nil, errors.WithMessage(err, "failed to decode profile")
		}
		req, err = profile.Request()
	case ".yaml", ".yml":
		profile := new(CertificateRequest)
		if err = yaml.Unmarshal(data, profile); err != nil {
			return nil, errors.WithMessage(err, "failed to decode profile")
		}
		req, err = profile.Request()
	default:
		req, err = ParseConfig(data)
	}
	if err != nil {
		return nil, err
	}

	if len(req.Subject) == 0 {
		return nil, errors.New("empty subject")
	}
	// validate the encoding of the subject attributes
	if _, err = req.RawSubject(); err != nil {
		return nil, err
	}
	return req, nil
}
