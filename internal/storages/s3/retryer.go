package s3

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/wal-g/tracelog"
)

func NewConnResetRetryer(baseRetryer request.Retryer) *ConnResetRetryer {
	return &ConnResetRetryer{
		baseRetryer,
	}
}

// ConnResetRetryer retries requests dropped by a connection reset on top of the base retry policy.
type ConnResetRetryer struct {
	request.Retryer
}

func (r ConnResetRetryer) ShouldRetry(req *request.Request) bool {
	if req.Error != nil && strings.Contains(req.Error.Error(), "connection reset by peer") {
		tracelog.WarningLogger.Printf("Retrying S3 request after connection reset: %v\n", req.Error)
		return true
	}
	return r.Retryer.ShouldRetry(req)
}
