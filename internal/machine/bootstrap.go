package machine

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// MarkerFile is written by the final bootstrap command.
const MarkerFile = "hello_there_bootstrap_has_finished"

const defaultTimezone = "America/New_York"

// Script is an ordered list of first-boot commands for one machine kind.
type Script struct {
	kind     Kind
	commands []string
}

// NewScript returns the standard bootstrap for spec: OS update, timezone,
// runtime environment variable, tooling install and SSM agent start.
// envKey and envValue are written to /etc/environment.
func NewScript(spec *Spec, envKey, envValue string) *Script {
	timezone := spec.Timezone
	if timezone == "" {
		timezone = defaultTimezone
	}

	s := &Script{kind: Kind(spec.Type)}
	s.Append("yum update -y")
	s.Append("timedatectl set-timezone " + timezone)
	s.Append(fmt.Sprintf(`echo "%s=%s" >> /etc/environment`, envKey, envValue))
	s.Append("yum install -y ruby")
	s.Append("yum install python-pip -y")
	s.Append("pip install boto3")
	s.Append("sudo systemctl enable amazon-ssm-agent")
	s.Append("sudo systemctl start amazon-ssm-agent")
	return s
}

// Append adds caller commands. They run before the marker is written.
func (s *Script) Append(commands ...string) {
	s.commands = append(s.commands, commands...)
}

// Commands returns a copy of the accumulated commands, without the marker.
func (s *Script) Commands() []string {
	return append([]string(nil), s.commands...)
}

// Render returns the script text with the kind's framing and the marker
// command last. Rendering does not modify the script.
func (s *Script) Render() (string, error) {
	layout, err := s.kind.layout()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(layout.prefix)
	for _, cmd := range s.commands {
		b.WriteString(cmd)
		b.WriteString(layout.lineEnding)
	}
	b.WriteString("touch ./" + MarkerFile)
	b.WriteString(layout.lineEnding)
	b.WriteString(layout.suffix)
	return b.String(), nil
}

// RenderBase64 returns Render's output base64-encoded, the form EC2
// user data is submitted in.
func (s *Script) RenderBase64() (string, error) {
	text, err := s.Render()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(text)), nil
}
