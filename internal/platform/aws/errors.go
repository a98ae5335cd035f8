package aws

import (
	"errors"

	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
)

// API error codes the provisioning layer branches on.
const (
	CodeInstanceNotFound       = "InvalidInstanceID.NotFound"
	CodeInvocationDoesNotExist = "InvocationDoesNotExist"
	CodeSecretNotFound         = "ResourceNotFoundException"
)

// IsInstanceNotFound reports whether EC2 does not (yet) know an instance ID.
// Right after launch this is an eventual-consistency condition.
func IsInstanceNotFound(err error) bool {
	return hasErrorCode(err, CodeInstanceNotFound)
}

// IsInvocationPending reports whether a command invocation is not yet
// visible to GetCommandInvocation.
func IsInvocationPending(err error) bool {
	if err == nil {
		return false
	}

	var notYet *ssmtypes.InvocationDoesNotExist
	if errors.As(err, &notYet) {
		return true
	}
	return hasErrorCode(err, CodeInvocationDoesNotExist)
}

// IsSecretNotFound reports whether a secret name is unknown.
func IsSecretNotFound(err error) bool {
	return hasErrorCode(err, CodeSecretNotFound)
}

// hasErrorCode checks if the error is an AWS API error with one of the given codes.
func hasErrorCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		for _, code := range codes {
			if apiErr.ErrorCode() == code {
				return true
			}
		}
	}
	return false
}
