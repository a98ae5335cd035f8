package labels

import (
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Standard tag keys for machines.
const (
	KeyName         = "Name"
	KeyEnvironment  = "Environment"
	KeyTimestamp    = "Timestamp"
	KeyService      = "Service"
	KeyPurpose      = "Purpose"
	KeyExpectedTTL  = "ExpectedTTL"
	KeyInstanceType = "Instance-Type"

	// KeyEIPPool groups reserved addresses into named pools.
	KeyEIPPool = "eip-pool"
)

// identityKeys is the order identity tags are emitted in.
var identityKeys = []string{
	KeyName, KeyEnvironment, KeyTimestamp, KeyService, KeyPurpose, KeyExpectedTTL, KeyInstanceType,
}

// TagBuilder provides a fluent interface for building machine tags.
type TagBuilder struct {
	tags map[string]string
}

// NewTagBuilder creates a new tag builder with the name and environment pre-set.
func NewTagBuilder(name, environment string) *TagBuilder {
	return &TagBuilder{
		tags: map[string]string{
			KeyName:        name,
			KeyEnvironment: environment,
		},
	}
}

// WithTimestamp sets the creation timestamp.
func (tb *TagBuilder) WithTimestamp(ts string) *TagBuilder {
	tb.tags[KeyTimestamp] = ts
	return tb
}

// WithService sets the owning service.
func (tb *TagBuilder) WithService(service string) *TagBuilder {
	tb.tags[KeyService] = service
	return tb
}

// WithPurpose sets the machine's purpose.
func (tb *TagBuilder) WithPurpose(purpose string) *TagBuilder {
	tb.tags[KeyPurpose] = purpose
	return tb
}

// WithExpectedTTL sets the expected lifetime. An empty value is recorded
// as "None" so the tag is always present.
func (tb *TagBuilder) WithExpectedTTL(ttl string) *TagBuilder {
	if ttl == "" {
		ttl = "None"
	}
	tb.tags[KeyExpectedTTL] = ttl
	return tb
}

// WithInstanceType sets the machine kind.
func (tb *TagBuilder) WithInstanceType(kind string) *TagBuilder {
	tb.tags[KeyInstanceType] = kind
	return tb
}

// Merge adds all tags from the provided map.
func (tb *TagBuilder) Merge(extra map[string]string) *TagBuilder {
	for k, v := range extra {
		tb.tags[k] = v
	}
	return tb
}

// Build returns a copy of the tags map.
func (tb *TagBuilder) Build() map[string]string {
	result := make(map[string]string, len(tb.tags))
	for k, v := range tb.tags {
		result[k] = v
	}
	return result
}

// ToEC2 converts a tag map to EC2 tags in a deterministic order.
func ToEC2(tags map[string]string) []types.Tag {
	result := make([]types.Tag, 0, len(tags))
	seen := make(map[string]bool, len(identityKeys))
	for _, k := range identityKeys {
		if v, ok := tags[k]; ok {
			result = append(result, types.Tag{Key: aws.String(k), Value: aws.String(v)})
			seen[k] = true
		}
	}

	rest := make([]string, 0, len(tags))
	for k := range tags {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		result = append(result, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return result
}

// Filter returns an EC2 filter matching any of values on tag key.
func Filter(key string, values ...string) types.Filter {
	return types.Filter{Name: aws.String("tag:" + key), Values: values}
}
