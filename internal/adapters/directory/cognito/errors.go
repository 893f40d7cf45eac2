package cognito

import (
	"context"
	"errors"
	"net/http"

	perr "batchcognito/internal/platform/errors"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// apiCodes maps Cognito error codes onto project error codes
var apiCodes = map[string]perr.ErrorCode{
	"TooManyRequestsException":    perr.ErrorCodeTooManyRequests,
	"LimitExceededException":      perr.ErrorCodeTooManyRequests,
	"ThrottlingException":         perr.ErrorCodeTooManyRequests,
	"InternalErrorException":      perr.ErrorCodeUnavailable,
	"ServiceUnavailable":          perr.ErrorCodeUnavailable,
	"UserNotFoundException":       perr.ErrorCodeNotFound,
	"ResourceNotFoundException":   perr.ErrorCodeNotFound,
	"NotAuthorizedException":      perr.ErrorCodeUnauthorized,
	"UnrecognizedClientException": perr.ErrorCodeUnauthorized,
	"ExpiredTokenException":       perr.ErrorCodeUnauthorized,
	"AccessDeniedException":       perr.ErrorCodeForbidden,
	"InvalidParameterException":   perr.ErrorCodeInvalidArgument,
}

// classify wraps an SDK error with a project code so callers can decide
// whether to retry without importing the SDK
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "cognito %s interrupted", what)
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		if code, ok := apiCodes[ae.ErrorCode()]; ok {
			return perr.Wrapf(err, code, "cognito %s: %s", what, ae.ErrorCode())
		}
		if ae.ErrorFault() == smithy.FaultServer {
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "cognito %s: %s", what, ae.ErrorCode())
		}
	}

	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		switch status := re.HTTPStatusCode(); {
		case status == http.StatusTooManyRequests:
			return perr.Wrapf(err, perr.ErrorCodeTooManyRequests, "cognito %s: http %d", what, status)
		case status >= 500:
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "cognito %s: http %d", what, status)
		}
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "cognito %s failed", what)
	}

	if ae != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "cognito %s: %s", what, ae.ErrorCode())
	}
	// no API response at all: dial, TLS or connection reset
	return perr.Wrapf(err, perr.ErrorCodeUnavailable, "cognito %s transport error", what)
}
