package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

// Extractor is satisfied by *Dispatcher.
type Extractor interface {
	Extract(ctx context.Context, ref StorageReference) ExtractionResult
}

// Controller runs one ingestion batch: for each record it resolves the key,
// extracts text, assembles the record and commits it. Records are processed
// one at a time and a failing record never stops its siblings.
type Controller struct {
	Store     ObjectStore
	Extractor Extractor
	Assembler *Assembler
	Indexer   *Indexer
	Logger    *slog.Logger
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Run processes every record of the batch. The result is OK unless the batch
// itself was interrupted; per-record failures are listed in Outcomes.
func (c *Controller) Run(ctx context.Context, batch models.IngestionBatch) models.BatchResult {
	result := models.BatchResult{Outcomes: make([]models.RecordOutcome, 0, len(batch.Records))}
	c.logger().Info("Processing ingestion batch.", "recordCount", len(batch.Records))

	for i, rec := range batch.Records {
		if err := ctx.Err(); err != nil {
			c.logger().Error("Batch interrupted.", "processed", i, "recordCount", len(batch.Records), "error", err)
			result.Message = fmt.Sprintf("Error processing document: batch interrupted after %d of %d records: %v", i, len(batch.Records), err)
			return result
		}
		result.Outcomes = append(result.Outcomes, c.processRecord(ctx, rec))
	}

	result.OK = true
	result.Message = fmt.Sprintf("Document processing complete: %d indexed, %d skipped, %d failed",
		result.Count(models.OutcomeIndexed),
		result.Count(models.OutcomeEmpty)+result.Count(models.OutcomeUnsupported),
		result.Count(models.OutcomeExtractionFailed)+result.Count(models.OutcomeIndexFailed)+result.Count(models.OutcomeError))
	return result
}

// processRecord isolates one record. Panics are recovered and reported as errors.
func (c *Controller) processRecord(ctx context.Context, rec models.IngestionRecord) (outcome models.RecordOutcome) {
	outcome = models.RecordOutcome{Bucket: rec.Bucket, Key: rec.Key}
	ref := Resolve(rec.Bucket, rec.Key)
	if rec.Literal {
		ref = ResolveLiteral(rec.Bucket, rec.Key)
	}
	logCtx := c.logger().With("bucket", ref.Bucket, "key", ref.DecodedKey)

	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Unexpected error while processing record.", "panic", r, "stack", string(debug.Stack()))
			outcome.Status = models.OutcomeError
			outcome.Reason = fmt.Sprint(r)
		}
	}()

	logCtx.Info("Processing file.")
	extracted := c.Extractor.Extract(ctx, ref)
	switch extracted.Kind {
	case KindEmpty:
		logCtx.Info("No content extracted, skipping.", "reason", extracted.Reason)
		outcome.Status = models.OutcomeEmpty
		outcome.Reason = extracted.Reason
		return outcome
	case KindFailure:
		outcome.Status = models.OutcomeExtractionFailed
		if extracted.Err != nil && extracted.Err.Kind == FailureUnsupported {
			outcome.Status = models.OutcomeUnsupported
		}
		outcome.Reason = extracted.Reason
		logCtx.Error("Extraction failed.", "reason", extracted.Reason, "error", extracted.Err)
		return outcome
	}
	if extracted.Text == "" {
		outcome.Status = models.OutcomeEmpty
		outcome.Reason = ErrEmptyOutput.Error()
		return outcome
	}

	meta, metaErr := c.Store.HeadObject(ctx, ref.Bucket, ref.RawKey)
	doc := c.Assembler.Assemble(ref, extracted.Text, meta, metaErr)
	outcome.DocumentID = doc.DocumentID

	if err := c.Indexer.Commit(ctx, doc); err != nil {
		var commitErr *IndexCommitError
		if errors.As(err, &commitErr) {
			logCtx.Error("Error indexing document.", "documentId", commitErr.DocumentID, "error", commitErr.Err)
		}
		outcome.Status = models.OutcomeIndexFailed
		outcome.Reason = err.Error()
		return outcome
	}

	logCtx.Info("Successfully indexed document.", "documentId", doc.DocumentID, "contentLength", len(doc.Content))
	outcome.Status = models.OutcomeIndexed
	return outcome
}
