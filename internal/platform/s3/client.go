package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	platformaws "github.com/gwerks/gwerks/internal/platform/aws"
	"github.com/gwerks/gwerks/internal/provisioning"
)

// Stream selects stdout or stderr of a command invocation.
type Stream string

const (
	// Stdout is the standard output object.
	Stdout Stream = "stdout"
	// Stderr is the standard error object.
	Stderr Stream = "stderr"
)

// pluginPath is the object path segment for the AWS-RunShellScript plugin.
const pluginPath = "awsrunShellScript/0.awsrunShellScript"

// Client fetches command output objects.
type Client struct {
	s3 platformaws.S3API
}

// NewClient creates a Client over an S3 API implementation.
func NewClient(api platformaws.S3API) *Client {
	return &Client{s3: api}
}

// OutputKey returns the object key SSM writes a stream to.
func OutputKey(prefix, commandID, instanceID string, stream Stream) string {
	return path.Join(prefix, commandID, instanceID, pluginPath, string(stream))
}

// GetObject downloads an object from a bucket. A missing object wraps
// provisioning.ErrNotFound.
func (c *Client) GetObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("object %s in bucket %s: %w", key, bucketName, provisioning.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, bucketName, err)
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	return buf.Bytes(), nil
}

// CommandOutput downloads one stream of a command invocation.
func (c *Client) CommandOutput(ctx context.Context, bucket, prefix, commandID, instanceID string, stream Stream) (string, error) {
	data, err := c.GetObject(ctx, bucket, OutputKey(prefix, commandID, instanceID, stream))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	// Check for typed S3 errors first
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Fall back to API error code checking
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "NoSuchBucket"
	}

	return false
}
