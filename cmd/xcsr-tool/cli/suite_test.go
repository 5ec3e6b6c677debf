package cli

import (
	"bytes"

	"github.com/alecthomas/kong"
	"github.com/effective-security/xcsr/testca"
	"github.com/effective-security/xcsr/x/ctl"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
)

const template = "[req]\ndistinguished_name=dn\nreq_extensions=ext\n[dn]\nCN=example.com\nO=xcsr\n[ext]\nsubjectAltName=DNS:example.com,IP:10.1.1.12\nkeyUsage=critical,digitalSignature\n"

type testSuite struct {
	suite.Suite

	ctl *Cli
	fs  afero.Fs
	// Out is the outpub buffer
	Out bytes.Buffer
}

func (s *testSuite) SetupTest() {
	s.Out.Reset()
	s.fs = afero.NewMemMapFs()
	s.ctl = &Cli{}

	s.ctl.WithErrWriter(&s.Out).
		WithWriter(&s.Out).
		WithFS(s.fs)

	parser, err := kong.New(s.ctl,
		kong.Name("xcsr-tool"),
		kong.Description("Declarative management of certificate requests"),
		kong.Writers(&s.Out, &s.Out),
		ctl.BoolPtrMapper,
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{})
	if err != nil {
		s.FailNow("unexpected error constructing Kong: %+v", err)
	}

	_, err = parser.Parse([]string{"--log-level=info"})
	if err != nil {
		s.FailNow("unexpected error parsing: %+v", err)
	}
}

// writeResource writes the key and the template of the request
func (s *testSuite) writeResource(dir string, opts ...testca.Option) *testca.Entity {
	e := testca.NewEntity(opts...)
	s.Require().NoError(e.WriteKey(s.fs, dir+"/a.key"))
	s.Require().NoError(afero.WriteFile(s.fs, dir+"/a.cnf", []byte(template), 0o644))
	return e
}

// HasText is a helper method to assert that the out stream contains the supplied
// text somewhere
func (s *testSuite) HasText(texts ...string) {
	outStr := s.Out.String()
	for _, t := range texts {
		s.Contains(outStr, t)
	}
}

// HasNoText is a helper method to assert that the out stream does not contain the supplied
// text anywhere
func (s *testSuite) HasNoText(texts ...string) {
	outStr := s.Out.String()
	for _, t := range texts {
		s.NotContains(outStr, t)
	}
}
