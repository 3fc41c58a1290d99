package models

// These structs define the trigger payloads, the batch result, and the JSON
// bodies exchanged between the layout-analysis workflow and its workers.

// IngestionRecord names one uploaded object. Key may be percent-encoded
// exactly as the notification delivered it. Literal marks a key that is the
// object name itself and must not be decoded.
type IngestionRecord struct {
	Bucket  string `json:"bucket" yaml:"bucket"`
	Key     string `json:"key" yaml:"key"`
	Literal bool   `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// IngestionBatch is the set of records delivered by one notification.
type IngestionBatch struct {
	Records []IngestionRecord `json:"records" yaml:"records"`
}

// Record outcome statuses.
const (
	OutcomeIndexed          = "indexed"
	OutcomeEmpty            = "empty"
	OutcomeUnsupported      = "unsupported"
	OutcomeExtractionFailed = "extraction_failed"
	OutcomeIndexFailed      = "index_failed"
	OutcomeError            = "error"
)

// RecordOutcome reports what happened to one record of a batch.
type RecordOutcome struct {
	Bucket     string `json:"bucket" yaml:"bucket"`
	Key        string `json:"key" yaml:"key"`
	DocumentID string `json:"documentId,omitempty" yaml:"documentId,omitempty"`
	Status     string `json:"status" yaml:"status"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// BatchResult is returned once per ingestion invocation. OK is true when every
// record was attempted, whatever the individual outcomes were.
type BatchResult struct {
	OK       bool            `json:"ok"`
	Message  string          `json:"message"`
	Outcomes []RecordOutcome `json:"outcomes"`
}

// Count returns the number of outcomes with the given status.
func (r *BatchResult) Count(status string) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// LayoutWorkflowArgs is the argument of a layout-analysis workflow execution.
type LayoutWorkflowArgs struct {
	SourceBucket  string   `json:"sourceBucket"`
	SourceObject  string   `json:"sourceObject"`
	Features      []string `json:"features"`
	ResultsPrefix string   `json:"resultsPrefix"`
}

// LayoutWorkflowResult is the value a successful layout workflow returns.
type LayoutWorkflowResult struct {
	ResultsBucket string `json:"resultsBucket"`
	ResultsPrefix string `json:"resultsPrefix"`
	PageCount     int    `json:"pageCount"`
}

// PageSplitterRequest is the input for the page-splitter function.
type PageSplitterRequest struct {
	SourceBucket string `json:"sourceBucket"`
	SourceObject string `json:"sourceObject"`
	JobPrefix    string `json:"jobPrefix"`
}

// PageSplitterResponse is the output of the page-splitter function.
type PageSplitterResponse struct {
	Status    string   `json:"status"`
	PageCount int      `json:"pageCount"`
	PageURIs  []string `json:"pageUris"`
}

// PageTranscriberRequest is the input for the page-transcriber function.
type PageTranscriberRequest struct {
	JobPrefix  string   `json:"jobPrefix"`
	PageNumber int      `json:"pageNumber"`
	GCSUri     string   `json:"gcsUri"`
	Features   []string `json:"features"`

	// ResultsBucket overrides the transcriber's LAYOUT_RESULTS_BUCKET.
	ResultsBucket string `json:"resultsBucket,omitempty"`
}

// PageTranscriberResponse is the output of the page-transcriber function.
type PageTranscriberResponse struct {
	Status       string `json:"status"`
	OutputGCSUri string `json:"outputGcsUri"`
	LineCount    int    `json:"lineCount"`
}
