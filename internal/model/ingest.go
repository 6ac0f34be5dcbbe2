package model

type IngestFailureCode string

const (
	FailureSettingsMissing IngestFailureCode = "SETTINGS_MISSING"
	FailureInvalidConfig   IngestFailureCode = "INVALID_CONFIG"
	FailureNetworkError    IngestFailureCode = "NETWORK_ERROR"
	FailureTimeout         IngestFailureCode = "TIMEOUT"
	FailureUnauthorized    IngestFailureCode = "UNAUTHORIZED"
	FailureInvalidPayload  IngestFailureCode = "INVALID_PAYLOAD"
	FailureMediaIngestion  IngestFailureCode = "MEDIA_INGESTION_FAILED"
	FailureIngestDisabled  IngestFailureCode = "INGEST_DISABLED"
	FailureServerError     IngestFailureCode = "SERVER_ERROR"
	FailureUnknown         IngestFailureCode = "UNKNOWN"
)

// IngestFailure is the terminal error representation surfaced to the user.
// It is constructed once by the ingest client and never re-derived.
type IngestFailure struct {
	Code    IngestFailureCode `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status,omitempty"`
	Details string            `json:"details,omitempty"`
}

// Send modes accepted by the ingest endpoint.
const (
	ModeQuick   = "quick"
	ModeCompose = "compose"
)
