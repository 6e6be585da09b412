package genai

import (
	"strings"

	"github.com/vilaweb/leadgen-cli/internal/model"
	"github.com/vilaweb/leadgen-cli/pkg/anthropic"
)

// quotaPatterns are API error body fragments that indicate exhausted quota
// or balance rather than a transient server problem.
var quotaPatterns = []string{
	"credit balance",
	"insufficient credits",
	"quota",
	"rate limit",
	"billing",
}

// formatPatterns indicate the request itself was rejected (bad model id,
// invalid parameters), which the operator sees as a provider error.
var formatPatterns = []string{
	"invalid model",
	"model not found",
	"invalid_request_error",
	"not_found_error",
}

// ClassifyProviderError maps a provider-call error onto the failure
// taxonomy that drives fallback selection and warning text.
func ClassifyProviderError(err error) model.FailureReason {
	if err == nil {
		return model.FailureNone
	}

	msg := strings.ToLower(err.Error())

	if status, ok := anthropic.APIStatus(err); ok {
		switch {
		case status == 401 || status == 403:
			return model.FailureNoCredentials
		case status == 429:
			return model.FailureQuotaExceeded
		case status == 400 || status == 404:
			for _, p := range quotaPatterns {
				if strings.Contains(msg, p) {
					return model.FailureQuotaExceeded
				}
			}
			return model.FailureFormatError
		default:
			return model.FailureTransport
		}
	}

	for _, p := range quotaPatterns {
		if strings.Contains(msg, p) {
			return model.FailureQuotaExceeded
		}
	}
	for _, p := range formatPatterns {
		if strings.Contains(msg, p) {
			return model.FailureFormatError
		}
	}
	return model.FailureTransport
}
