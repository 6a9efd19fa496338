package errors

// ErrorCode is a string identifier for a specific failure category.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal      ErrorCode = "COMMON_001"
	ErrCodeInvalidInput  ErrorCode = "COMMON_002"
	ErrCodeNotFound      ErrorCode = "COMMON_003"
	ErrCodeSerialization ErrorCode = "COMMON_004"
	ErrCodeStorage       ErrorCode = "COMMON_005"
	ErrCodeCache         ErrorCode = "COMMON_006"
	ErrCodeTimeout       ErrorCode = "COMMON_007"

	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// Configuration error codes
const (
	ErrCodeConfiguration     ErrorCode = "CFG_001"
	ErrCodeConfigCombination ErrorCode = "CFG_002"
)

// Corpus / training error codes
const (
	ErrCodeEmptyCorpus      ErrorCode = "CORPUS_001"
	ErrCodeInsufficientData ErrorCode = "CORPUS_002"
	ErrCodeVocabularyClosed ErrorCode = "CORPUS_003"
)

// Ingestion boundary error codes
const (
	ErrCodeMalformedRecord ErrorCode = "INGEST_001"
	ErrCodeDecodeFailed    ErrorCode = "INGEST_002"
)

// Model error codes
const (
	ErrCodeModelNotTrained    ErrorCode = "MODEL_001"
	ErrCodeModelArtifact      ErrorCode = "MODEL_002"
	ErrCodeFeatureDimension   ErrorCode = "MODEL_003"
	ErrCodeAttributionFailure ErrorCode = "MODEL_004"
)
