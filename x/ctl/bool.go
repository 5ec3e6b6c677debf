package ctl

import (
	"reflect"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/cockroachdb/errors"
)

// boolValues are the accepted values of a *bool flag
var boolValues = map[string]bool{
	"true":  true,
	"yes":   true,
	"on":    true,
	"1":     true,
	"false": false,
	"no":    false,
	"off":   false,
	"0":     false,
}

// boolPtrMapper decodes a tri-state flag: the field stays nil when the flag
// is not specified, so the default of the command applies, for example
// key encryption of the ensure command.
type boolPtrMapper struct{}

func (boolPtrMapper) Decode(ctx *kong.DecodeContext, target reflect.Value) error {
	val := true
	if ctx.Scan.Peek().Type == kong.FlagValueToken {
		token := ctx.Scan.Pop()
		switch v := token.Value.(type) {
		case string:
			b, ok := boolValues[strings.ToLower(strings.TrimSpace(v))]
			if !ok {
				return errors.Errorf("invalid value %q: expected true, false, yes, no, on, off, 1 or 0", v)
			}
			val = b
		case bool:
			val = v
		default:
			return errors.Errorf("invalid value %v: expected bool, got %T", token.Value, token.Value)
		}
	}
	target.Set(reflect.ValueOf(&val))
	return nil
}

func (boolPtrMapper) IsBool() bool { return true }

// BoolPtrMapper registers the mapper for *bool flags, such as --encrypted=false
var BoolPtrMapper = kong.TypeMapper(reflect.TypeFor[*bool](), boolPtrMapper{})
