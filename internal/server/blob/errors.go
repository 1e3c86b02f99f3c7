package blob

import (
	"errors"

	"github.com/aws/smithy-go"
)

// Cause names the class of an object store failure.
type Cause string

const (
	CauseInvalidCredentials Cause = "invalid_credentials"
	CauseMissingBucket      Cause = "missing_bucket"
	CauseOther              Cause = "other"
)

// Classify maps an SDK error to a Cause using the S3 error code.
func Classify(err error) Cause {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return CauseOther
	}
	switch apiErr.ErrorCode() {
	case "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return CauseInvalidCredentials
	case "NoSuchBucket":
		return CauseMissingBucket
	default:
		return CauseOther
	}
}

// Message is the client-facing text for cause.
func (c Cause) Message() string {
	switch c {
	case CauseInvalidCredentials:
		return "Invalid AWS credentials. Please check your configuration."
	case CauseMissingBucket:
		return "S3 bucket not found. Please check your configuration."
	default:
		return "Failed to upload file"
	}
}
