// Package s3 reads remote command output that SSM wrote to an S3 bucket.
//
// SSM truncates inline command output at 24000 characters. When a command
// is sent with an output bucket, the complete stdout and stderr are stored
// under a fixed key layout that OutputKey reproduces.
package s3
