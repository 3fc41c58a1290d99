package pipeline

import "fmt"

// ResultKind tags an ExtractionResult.
type ResultKind int

const (
	KindSuccess ResultKind = iota
	KindEmpty
	KindFailure
)

func (k ResultKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindEmpty:
		return "empty"
	default:
		return "failure"
	}
}

// FailureKind classifies why a strategy failed.
type FailureKind string

const (
	FailureStorageAccess FailureKind = "storage_access"
	FailureConverter     FailureKind = "converter"
	FailureJobFailed     FailureKind = "job_failed"
	FailureTimeout       FailureKind = "timeout"
	FailureUnsupported   FailureKind = "unsupported"
	FailureUnavailable   FailureKind = "unavailable"
)

// ExtractionResult is the outcome of one strategy or of the whole dispatch.
// Only Success carries text; Empty and Failure both skip indexing.
type ExtractionResult struct {
	Kind   ResultKind
	Text   string
	Reason string
	Err    *ExtractionError
}

// Success wraps extracted text.
func Success(text string) ExtractionResult {
	return ExtractionResult{Kind: KindSuccess, Text: text}
}

// Empty reports a strategy that ran cleanly but produced nothing.
func Empty(reason string) ExtractionResult {
	return ExtractionResult{Kind: KindEmpty, Reason: reason}
}

// Failure reports a strategy failure of the given kind.
func Failure(kind FailureKind, reason string, cause error) ExtractionResult {
	return ExtractionResult{
		Kind:   KindFailure,
		Reason: reason,
		Err:    &ExtractionError{Kind: kind, Reason: reason, Err: cause},
	}
}

// OK reports whether the result carries text to index.
func (r ExtractionResult) OK() bool { return r.Kind == KindSuccess }

func (r ExtractionResult) String() string {
	if r.Kind == KindSuccess {
		return fmt.Sprintf("success (%d bytes)", len(r.Text))
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
}
