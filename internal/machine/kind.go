package machine

import (
	"fmt"

	"github.com/gwerks/gwerks/internal/provisioning"
)

// Kind is a supported machine kind. It doubles as the spec "type" and the
// key into the catalog's AMI table.
type Kind string

// KindLinuxServer is an Amazon Linux host managed through the SSM agent.
const KindLinuxServer Kind = "linux-server"

// scriptLayout is the framing a kind's bootstrap script is rendered with.
type scriptLayout struct {
	prefix     string
	suffix     string
	lineEnding string
}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, err := k.layout(); err != nil {
		return "", err
	}
	return k, nil
}

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

func (k Kind) layout() (scriptLayout, error) {
	switch k {
	case KindLinuxServer:
		return scriptLayout{prefix: "#!/bin/bash\n", lineEnding: "\n"}, nil
	default:
		return scriptLayout{}, fmt.Errorf("%w: unrecognized machine type %q", provisioning.ErrConfiguration, string(k))
	}
}

// ReadinessCommand is the remote command whose output lists the bootstrap
// marker once first boot has finished.
func (k Kind) ReadinessCommand() (string, error) {
	switch k {
	case KindLinuxServer:
		return "ls -l /", nil
	default:
		return "", fmt.Errorf("%w: unrecognized machine type %q", provisioning.ErrConfiguration, string(k))
	}
}
