package reconciler

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/cryptoprov"
	"github.com/effective-security/xcsr/csr"
	"github.com/effective-security/xcsr/csrerr"
	"github.com/effective-security/xcsr/metricskey"
	"github.com/effective-security/xcsr/x/fileutil"
	"github.com/spf13/afero"
)

// State is the observed state of the request
type State int

// States of the request
const (
	// StateAbsent means no file exists at the request path
	StateAbsent State = iota
	// StatePresentValid means the file exists and is accepted as is
	StatePresentValid
	// StatePresentStale means the file exists but is not signed by the key
	StatePresentStale
)

var stateNames = map[State]string{
	StateAbsent:       "absent",
	StatePresentValid: "present_valid",
	StatePresentStale: "present_stale",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the action taken by a pass
type Outcome string

// Outcomes
const (
	NoOp      Outcome = "noop"
	Created   Outcome = "created"
	Recreated Outcome = "recreated"
	Removed   Outcome = "removed"
	// Failed is reported to metrics when a pass returns error
	Failed Outcome = "failed"
)

// KeyFileMode is the permission of written key artifacts
const KeyFileMode = 0o600

// Result is the result of a pass
type Result struct {
	Path    string  `json:"path" yaml:"path"`
	State   State   `json:"state" yaml:"state"`
	Outcome Outcome `json:"outcome" yaml:"outcome"`
}

// Reconciler converges certificate requests on a filesystem
type Reconciler struct {
	fs afero.Fs
}

// New returns Reconciler, if fs is nil the OS filesystem is used
func New(fs afero.Fs) *Reconciler {
	if fs == nil {
		fs = fileutil.Vfs
	}
	return &Reconciler{fs: fs}
}

// Apply reconciles or removes the request, according to Ensure of the descriptor
func (r *Reconciler) Apply(d *Descriptor) (*Result, error) {
	d = d.WithDefaults()
	if d.Ensure == Absent {
		outcome, err := r.Remove(d)
		if err != nil {
			return nil, err
		}
		return &Result{Path: d.Path, State: StateAbsent, Outcome: outcome}, nil
	}

	state, outcome, err := r.reconcile(d)
	if err != nil {
		return nil, err
	}
	return &Result{Path: d.Path, State: state, Outcome: outcome}, nil
}

// Reconcile ensures that the request exists and, if Force is specified,
// is signed by the private key. The descriptor is validated
// before the filesystem is accessed.
func (r *Reconciler) Reconcile(d *Descriptor) (Outcome, error) {
	_, outcome, err := r.reconcile(d.WithDefaults())
	return outcome, err
}

// Determine returns the observed state of the request. It does not modify any file.
// StateAbsent is returned with any error.
func (r *Reconciler) Determine(d *Descriptor) (State, error) {
	d = d.WithDefaults()
	algo, err := d.Validate()
	if err != nil {
		return StateAbsent, err
	}

	state, key, err := r.observe(d, algo)
	if key != nil {
		key.Destroy()
	}
	return state, err
}

// Remove deletes the request file. A missing request is not an error,
// a folder at the request path is.
func (r *Reconciler) Remove(d *Descriptor) (Outcome, error) {
	if d.Path == "" {
		return "", csrerr.New(csrerr.ErrIO, "path is required")
	}

	fi, err := r.fs.Stat(d.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Removed, nil
		}
		return "", csrerr.Mark(errors.WithStack(err), csrerr.ErrIO, "unable to stat certificate request %q", d.Path)
	}
	if fi.IsDir() {
		return "", csrerr.New(csrerr.ErrIO, "unable to remove certificate request %q: not a file", d.Path)
	}

	err = r.fs.Remove(d.Path)
	if err != nil && !os.IsNotExist(err) {
		return "", csrerr.Mark(errors.WithStack(err), csrerr.ErrIO, "unable to remove certificate request %q", d.Path)
	}
	return Removed, nil
}

func (r *Reconciler) reconcile(d *Descriptor) (state State, outcome Outcome, err error) {
	algo, err := d.Validate()
	if err != nil {
		return StateAbsent, "", err
	}

	defer func(start time.Time) {
		tag := outcome
		if err != nil {
			tag = Failed
		}
		metricskey.PerfReconcile.MeasureSince(start, algo.String(), string(tag))
	}(time.Now())

	state, key, err := r.observe(d, algo)
	if key != nil {
		defer key.Destroy()
	}
	if err != nil {
		return state, "", err
	}

	switch state {
	case StatePresentValid:
		return state, NoOp, nil
	case StatePresentStale:
		outcome = Recreated
	default:
		outcome = Created
	}

	if err = r.generate(d, algo, key); err != nil {
		return state, "", err
	}
	return state, outcome, nil
}

// observe returns the state of the request,
// and the private key if it was loaded to verify the request.
// On error the state is StateAbsent, the key may still be returned
// and must be destroyed by the caller.
func (r *Reconciler) observe(d *Descriptor, algo cryptoprov.Algorithm) (State, *cryptoprov.PrivateKey, error) {
	exists, err := fileutil.Exists(r.fs, d.Path)
	if err != nil {
		return StateAbsent, nil, csrerr.Mark(err, csrerr.ErrIO, "unable to stat certificate request %q", d.Path)
	}
	if !exists {
		return StateAbsent, nil, nil
	}
	if !d.Force {
		return StatePresentValid, nil, nil
	}

	key, err := cryptoprov.LoadPrivateKey(r.fs, d.PrivateKeyPath, d.password(), algo)
	if err != nil {
		return StateAbsent, nil, err
	}

	valid, err := csr.Verify(r.fs, d.Path, key)
	if err != nil {
		return StateAbsent, key, err
	}
	if !valid {
		return StatePresentStale, key, nil
	}
	return StatePresentValid, key, nil
}

// generate writes the request, and the key artifact if KeyOut is specified
func (r *Reconciler) generate(d *Descriptor, algo cryptoprov.Algorithm, key *cryptoprov.PrivateKey) error {
	tmpl, err := csr.LoadTemplate(r.fs, d.Template)
	if err != nil {
		return err
	}

	if key == nil {
		key, err = cryptoprov.LoadPrivateKey(r.fs, d.PrivateKeyPath, d.password(), algo)
		if err != nil {
			return err
		}
		defer key.Destroy()
	}

	if err = csr.Generate(r.fs, key, tmpl, d.Path); err != nil {
		return err
	}

	if d.KeyOut == "" {
		return nil
	}

	pw := d.password()
	pemKey, err := cryptoprov.ExportPEM(key, pw, tmpl.KeyEncryption(d.IsEncrypted()))
	clear(pw)
	if err != nil {
		return csrerr.Mark(err, csrerr.ErrWrite, "unable to export private key %q", d.KeyOut)
	}
	defer clear(pemKey)

	if err = fileutil.WriteFileAtomic(r.fs, d.KeyOut, pemKey, KeyFileMode); err != nil {
		return csrerr.Mark(err, csrerr.ErrWrite, "unable to write private key %q", d.KeyOut)
	}
	return nil
}
