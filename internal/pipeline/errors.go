package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is returned for extensions no strategy handles.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrLayoutUnavailable means no layout analyzer is configured.
	ErrLayoutUnavailable = errors.New("layout analysis unavailable")

	// ErrJobFailed means the layout service reported a failed job.
	ErrJobFailed = errors.New("layout analysis job failed")

	// ErrJobTimeout means the layout job did not finish within the allowed wait.
	ErrJobTimeout = errors.New("layout analysis job timed out")

	// ErrEmptyOutput means a strategy produced no text.
	ErrEmptyOutput = errors.New("no text extracted")

	// ErrConverterExit means the converter exited with a nonzero status.
	ErrConverterExit = errors.New("converter exited with error")

	// ErrRepeatedPageToken means the analyzer handed back a page token it had already returned.
	ErrRepeatedPageToken = errors.New("layout results repeated a page token")
)

// ResolutionError is reserved for key resolution failures. Resolve is total,
// so nothing produces it today.
type ResolutionError struct {
	Key string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Key, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ExtractionError describes a failed extraction for one record.
type ExtractionError struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Reason {
		return fmt.Sprintf("extraction %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction %s: %s", e.Kind, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IndexCommitError is returned when the index rejects a document write.
type IndexCommitError struct {
	DocumentID string
	Err        error
}

func (e *IndexCommitError) Error() string {
	return fmt.Sprintf("index commit %q: %v", e.DocumentID, e.Err)
}

func (e *IndexCommitError) Unwrap() error { return e.Err }
