package testing

import (
	"github.com/gwerks/gwerks/internal/config"
	"github.com/gwerks/gwerks/internal/machine"
)

// Fixture identifiers shared by Catalog and RawSpec.
const (
	KeyPair         = "ops-key"
	SecurityGroupID = "sg-0a1b2c"
	SubnetID        = "subnet-0a1b2c"
	AMI             = "ami-0a1b2c"
	ProfileARN      = "arn:aws:iam::123456789012:instance-profile/web"
)

// Catalog returns a catalog that resolves RawSpec.
func Catalog() *config.Catalog {
	return &config.Catalog{
		DefaultKeyPair:   KeyPair,
		SecurityGroups:   map[string][]string{"web": {SecurityGroupID}},
		Subnets:          map[string]string{"public-a": SubnetID},
		AMIs:             map[string]string{string(machine.KindLinuxServer): AMI},
		InstanceProfiles: map[string]string{"web": ProfileARN},
	}
}

// RawSpec returns a minimal valid machine spec attribute map.
func RawSpec() map[string]any {
	return map[string]any{
		"type":        string(machine.KindLinuxServer),
		"size":        "t3.micro",
		"role":        "web",
		"service":     "shop",
		"purpose":     "frontend",
		"subnet":      "public-a",
		"volume_size": 20,
		"expectedTTL": "24h",
	}
}

// Spec returns RawSpec parsed, after applying mutate to the raw map.
// It panics on an invalid spec so fixtures fail loudly.
func Spec(mutate ...func(map[string]any)) *machine.Spec {
	raw := RawSpec()
	for _, m := range mutate {
		m(raw)
	}
	spec, err := machine.ParseSpec(raw)
	if err != nil {
		panic(err)
	}
	return spec
}
