package model

// FailureReason classifies why a generation attempt did not use live
// provider output. FailureNone marks a successful live call.
type FailureReason string

const (
	FailureNone          FailureReason = "NONE"
	FailureNoCredentials FailureReason = "NO_CREDENTIALS"
	FailureQuotaExceeded FailureReason = "QUOTA_EXCEEDED"
	FailureFormatError   FailureReason = "PROVIDER_FORMAT_ERROR"
	FailureTransport     FailureReason = "TRANSPORT_EXCEPTION"
	FailurePermission    FailureReason = "PERMISSION_DENIED"
)

// sourceTags identify the origin of a candidate batch in API responses and
// run records. Live output gets SourceLive; each fallback reason gets its
// own tag so operators can tell mock data apart.
const (
	SourceLive = "live"
)

var sourceTags = map[FailureReason]string{
	FailureNone:          SourceLive,
	FailureNoCredentials: "mock_no_credentials",
	FailureQuotaExceeded: "mock_quota_exceeded",
	FailureFormatError:   "mock_provider_error",
	FailureTransport:     "mock_transport_error",
	FailurePermission:    "mock_permission_denied",
}

// SourceTag returns the batch source tag for this failure reason.
func (r FailureReason) SourceTag() string {
	if tag, ok := sourceTags[r]; ok {
		return tag
	}
	return "mock_unknown"
}

var warnings = map[FailureReason]string{
	FailureNoCredentials: "AI provider credentials are not configured. Showing synthetic sample data — check the ANTHROPIC key in the configuration.",
	FailureQuotaExceeded: "AI provider quota or balance is exhausted. Showing synthetic sample data until the quota is replenished.",
	FailureFormatError:   "The AI provider returned a malformed or empty response. Showing synthetic sample data instead.",
	FailureTransport:     "An unexpected error occurred while contacting the AI provider. Showing synthetic sample data instead.",
	FailurePermission:    "The requesting operator is not permitted to run AI generation.",
}

// Warning returns the operator-facing warning for a fallback batch, or ""
// for live output.
func (r FailureReason) Warning() string {
	return warnings[r]
}
