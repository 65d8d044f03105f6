package domain

import (
	"errors"
)

// Domain errors represent failures of the retrieval core.
// Components wrap them with context; callers match with errors.Is.
var (
	// ErrInvalidDocument indicates a missing, empty or unreadable source document.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrDimensionMismatch indicates embedding vectors of inconsistent size.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidArgument indicates a bad parameter such as k or chunk size.
	ErrInvalidArgument = errors.New("invalid argument")

	// Persistence Errors.

	// ErrIndexNotFound indicates no persisted index exists at a location.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexCorrupt indicates a persisted index could not be decoded or failed verification.
	ErrIndexCorrupt = errors.New("index corrupt")

	// Capability Errors.

	// ErrEmbeddingFailed indicates the embedding service returned an error or a malformed response.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrGenerationFailed indicates the language model returned an error or a malformed response.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrUpstreamTimeout indicates an embedding or generation call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUnsupportedType indicates no normaliser handles a document's MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConfigNotFound indicates a named configuration asset does not exist.
	ErrConfigNotFound = errors.New("config not found")
)

// ErrorKind is a stable, machine-readable name for a failure category.
type ErrorKind string

// Known error kinds.
const (
	KindInvalidDocument   ErrorKind = "invalid_document"
	KindDimensionMismatch ErrorKind = "dimension_mismatch"
	KindInvalidArgument   ErrorKind = "invalid_argument"
	KindIndexNotFound     ErrorKind = "index_not_found"
	KindIndexCorrupt      ErrorKind = "index_corrupt"
	KindEmbeddingFailed   ErrorKind = "embedding_failed"
	KindGenerationFailed  ErrorKind = "generation_failed"
	KindUpstreamTimeout   ErrorKind = "upstream_timeout"
	KindUnavailable       ErrorKind = "unavailable"
	KindInternal          ErrorKind = "internal"
)

// kindOrder is checked first to last. Timeout comes before the capability
// failures because a timed out call is wrapped as both.
var kindOrder = []struct {
	err  error
	kind ErrorKind
}{
	{ErrUpstreamTimeout, KindUpstreamTimeout},
	{ErrInvalidDocument, KindInvalidDocument},
	{ErrUnsupportedType, KindInvalidDocument},
	{ErrDimensionMismatch, KindDimensionMismatch},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrIndexNotFound, KindIndexNotFound},
	{ErrIndexCorrupt, KindIndexCorrupt},
	{ErrEmbeddingFailed, KindEmbeddingFailed},
	{ErrGenerationFailed, KindGenerationFailed},
	{ErrEmbeddingUnavailable, KindUnavailable},
	{ErrLLMUnavailable, KindUnavailable},
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kindOrder {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsRetryable reports whether the same request may succeed if repeated later.
// Nothing in the core retries; this is advice for callers.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindUpstreamTimeout, KindEmbeddingFailed, KindGenerationFailed, KindUnavailable:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ErrorKind) String() string {
	return string(k)
}
