// Package cliopts turns an ordered option map into command-line flags.
//
// Each option becomes a string flag named after the option, with a
// one-letter shorthand taken from its abbreviation (the first letter of
// each underscore-separated part). Options whose default is Required must
// be given on the command line; reading one that was not fails.
package cliopts

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gwerks/gwerks/internal/provisioning"
)

// Required marks an option that has no default.
const Required = "***required***"

// Option is one named command-line option.
type Option struct {
	Name    string
	Default string
	Usage   string
}

// Set is an ordered collection of options bound to a flag set.
type Set struct {
	options []Option
	values  map[string]*string
	flags   *pflag.FlagSet
}

// Abbreviation returns the first letter of each underscore-separated part
// of name: "key_pair_name" becomes "kpn".
func Abbreviation(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part != "" {
			b.WriteByte(part[0])
		}
	}
	return b.String()
}

// New validates options. Two options sharing a shorthand is a
// configuration error, since the command line could not tell them apart.
func New(options ...Option) (*Set, error) {
	seen := make(map[string]string, len(options))
	for _, opt := range options {
		if opt.Name == "" {
			return nil, fmt.Errorf("%w: option name is required", provisioning.ErrConfiguration)
		}
		short := shorthand(opt.Name)
		if short == "" {
			return nil, fmt.Errorf("%w: option name %q has no letters to abbreviate", provisioning.ErrConfiguration, opt.Name)
		}
		if prev, ok := seen[short]; ok {
			return nil, fmt.Errorf("%w: abbreviation for %s (-%s) already used by %s, unable to configure command line",
				provisioning.ErrConfiguration, opt.Name, short, prev)
		}
		seen[short] = opt.Name
	}
	return &Set{options: options, values: make(map[string]*string, len(options))}, nil
}

// MustNew is New for option lists fixed at compile time.
func MustNew(options ...Option) *Set {
	s, err := New(options...)
	if err != nil {
		panic(err)
	}
	return s
}

// Bind registers every option as a string flag on fs.
func (s *Set) Bind(fs *pflag.FlagSet) {
	s.flags = fs
	for _, opt := range s.options {
		usage := opt.Usage
		if opt.Default == Required {
			usage = strings.TrimSpace(usage + " (required)")
		}
		s.values[opt.Name] = fs.StringP(opt.Name, shorthand(opt.Name), opt.Default, usage)
	}
}

// Get returns the value of option key. An option still holding Required
// is an error naming it.
func (s *Set) Get(key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown option %q", provisioning.ErrConfiguration, key)
	}
	if *v == Required {
		return "", fmt.Errorf("%w: '%s' must be specified", provisioning.ErrConfiguration, key)
	}
	return *v, nil
}

// Changed reports whether option key was given on the command line.
func (s *Set) Changed(key string) bool {
	return s.flags != nil && s.flags.Changed(key)
}

func shorthand(name string) string {
	abbr := Abbreviation(name)
	if abbr == "" {
		return ""
	}
	return abbr[:1]
}
