// internal/ingest/errors.go
package ingest

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an item-scoped failure. Item failures never abort sibling
// items; they surface inside the batch result.
type Kind string

const (
	KindResolution      Kind = "resolution_error"
	KindInvalidLocation Kind = "invalid_location"
	KindTransfer        Kind = "transfer_error"
	KindTimeout         Kind = "timeout"
	KindValidation      Kind = "validation_error"
	KindStorage         Kind = "storage_error"
)

// ValidationReason narrows KindValidation failures.
type ValidationReason string

const (
	ReasonTooLarge          ValidationReason = "too_large"
	ReasonTooSmall          ValidationReason = "too_small"
	ReasonDimensionTooSmall ValidationReason = "dimension_too_small"
	ReasonUnreadableImage   ValidationReason = "unreadable_image"
	ReasonUnsupportedFormat ValidationReason = "unsupported_format"
)

// ItemError is the classified error produced by any pipeline stage.
type ItemError struct {
	Kind   Kind
	Reason ValidationReason
	Err    error
}

func (e *ItemError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// NewItemError wraps err with a failure kind.
func NewItemError(kind Kind, err error) *ItemError {
	return &ItemError{Kind: kind, Err: err}
}

// NewValidationError wraps err with the validation kind and a reason.
func NewValidationError(reason ValidationReason, err error) *ItemError {
	return &ItemError{Kind: KindValidation, Reason: reason, Err: err}
}

// Classify maps an arbitrary stage error to its failure kind. Context
// deadline and cancellation always classify as a timeout so that items cut
// off by the batch deadline report consistently.
func Classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	var itemErr *ItemError
	if errors.As(err, &itemErr) {
		return itemErr.Kind
	}
	return KindTransfer
}

// WireCode maps a failure to the error code published on the wire. The codes
// follow the upstream consumers' existing taxonomy.
func WireCode(kind Kind, reason ValidationReason) string {
	switch kind {
	case KindResolution:
		return "TELEGRAM_API_ERROR"
	case KindInvalidLocation:
		return "INVALID_TELEGRAM_URL"
	case KindTransfer:
		return "DOWNLOAD_HTTP_ERROR"
	case KindTimeout:
		return "DOWNLOAD_TIMEOUT"
	case KindStorage:
		return "S3_UPLOAD_ERROR"
	case KindValidation:
		switch reason {
		case ReasonUnsupportedFormat:
			return "UNSUPPORTED_FORMAT"
		case ReasonTooLarge:
			return "FILE_TOO_LARGE"
		case ReasonTooSmall:
			return "FILE_TOO_SMALL"
		case ReasonDimensionTooSmall:
			return "IMAGE_TOO_SMALL"
		case ReasonUnreadableImage:
			return "UNREADABLE_IMAGE"
		}
		return "VALIDATION_ERROR"
	}
	return "UNEXPECTED_ERROR"
}

// RoutingError rejects a request before any item processing starts.
type RoutingError struct {
	Code    string
	Message string
}

func (e *RoutingError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Routing error codes.
const (
	CodeUnsupportedMode    = "UNSUPPORTED_MODE"
	CodeEmptyBatch         = "EMPTY_BATCH"
	CodeMissingIdentifiers = "MISSING_IDENTIFIERS"
	CodeBatchTooLarge      = "BATCH_TOO_LARGE"
	CodeInternal           = "INTERNAL_ERROR"
)
