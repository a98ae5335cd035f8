package naming

import (
	"strings"

	"github.com/gwerks/gwerks/internal/config"
)

// Machine normalizes a raw machine name for env.
func Machine(raw string, env config.Environment) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	name := b.String()
	if !env.IsLive() {
		name += "-" + string(env)
	}
	return name
}

// LookupNames returns the Name tag values a normalized name matches in env.
func LookupNames(name string, env config.Environment) []string {
	names := []string{name}
	if legacy, ok := env.LegacyAlias(); ok {
		// "web-Dev" was "web-Development"
		names = append(names, name+strings.TrimPrefix(string(legacy), string(env)))
	}
	return names
}

// LookupEnvironments returns the Environment tag values env matches.
func LookupEnvironments(env config.Environment) []string {
	envs := []string{string(env)}
	if legacy, ok := env.LegacyAlias(); ok {
		envs = append(envs, string(legacy))
	}
	return envs
}
