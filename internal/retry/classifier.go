package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// DynamoDB error codes that signal a temporary condition.
// See: https://docs.aws.amazon.com/amazondynamodb/latest/developerguide/Programming.Errors.html
var transientErrorCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
	"TransactionInProgressException":         true,
	"LimitExceededException":                 true,
}

// DynamoDBErrorClassifier implements ingestor.ErrorClassifier for DynamoDB.
type DynamoDBErrorClassifier struct{}

// NewDynamoDBErrorClassifier creates a new DynamoDB error classifier.
func NewDynamoDBErrorClassifier() *DynamoDBErrorClassifier {
	return &DynamoDBErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
// Partially processed batches are always retryable.
func (c *DynamoDBErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ingestor.ErrUnprocessedItems) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if transientErrorCodes[apiErr.ErrorCode()] {
			return true
		}
		if apiErr.ErrorFault() == smithy.FaultServer {
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() >= 500 {
		return true
	}

	return c.isNetworkError(err) || c.isConnectionError(err)
}

func (c *DynamoDBErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			return errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
				errors.Is(opErr.Err, syscall.ECONNRESET) ||
				errors.Is(opErr.Err, syscall.ENETUNREACH) ||
				errors.Is(opErr.Err, syscall.EHOSTUNREACH)
		}
	}

	return false
}

// isConnectionError matches transport failures that reach us only as text,
// e.g. after the SDK wrapped them in its own retry error.
func (c *DynamoDBErrorClassifier) isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"i/o timeout",
		"broken pipe",
		"unexpected eof",
		"tls handshake timeout",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var _ ingestor.ErrorClassifier = (*DynamoDBErrorClassifier)(nil)
