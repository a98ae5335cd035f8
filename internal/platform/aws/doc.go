// Package aws wraps the AWS SDK clients the provisioning layer talks to.
//
// The EC2API, SSMAPI, SecretsAPI and S3API interfaces list the SDK methods
// in use with their exact SDK signatures, so *ec2.Client and friends
// satisfy them directly and tests substitute the function-field mocks in
// mock_client.go.
package aws
