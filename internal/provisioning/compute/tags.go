package compute

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	platformaws "github.com/gwerks/gwerks/internal/platform/aws"
	"github.com/gwerks/gwerks/internal/provisioning"
	"github.com/gwerks/gwerks/internal/util/labels"
	"github.com/gwerks/gwerks/internal/util/retry"
)

// ApplyTags writes tags to the instance id. A freshly launched instance may
// not be visible to CreateTags yet, so not-found errors are retried.
func (b *Binder) ApplyTags(ctx context.Context, id string, tags map[string]string) error {
	if len(tags) == 0 {
		return nil
	}
	input := &ec2.CreateTagsInput{
		Resources: []string{id},
		Tags:      labels.ToEC2(tags),
	}

	err := retry.WithExponentialBackoff(ctx, func() error {
		_, err := b.ec2.CreateTags(ctx, input)
		if err == nil {
			return nil
		}
		if platformaws.IsInstanceNotFound(err) {
			return err
		}
		return retry.Fatal(err)
	}, retry.WithMaxRetries(b.timeouts.RetryMaxAttempts), retry.WithInitialDelay(b.timeouts.RetryInitialDelay))
	if err != nil {
		return fmt.Errorf("failed to tag %s: %w", id, err)
	}
	provisioning.Info(b.observer, component, id, "Tagged %s", strings.Join(tagKeys(input), ", "))
	return nil
}

// tagKeys lists the keys of tags written by CreateTags, for logging.
func tagKeys(input *ec2.CreateTagsInput) []string {
	keys := make([]string, 0, len(input.Tags))
	for _, t := range input.Tags {
		keys = append(keys, aws.ToString(t.Key))
	}
	return keys
}
