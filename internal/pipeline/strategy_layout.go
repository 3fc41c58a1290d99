package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxWait      = 10 * time.Minute
)

// ExtractionJob tracks one asynchronous layout job.
type ExtractionJob struct {
	JobID     string
	Status    JobStatus
	PageToken string
}

// LayoutStrategy extracts text through an asynchronous layout-analysis job.
// Lines are concatenated in the order the service returns them, which is not
// guaranteed to be reading order on multi-column pages.
type LayoutStrategy struct {
	Analyzer     LayoutAnalyzer
	Features     []Feature
	PollInterval time.Duration
	// MaxWait bounds the time spent waiting for the job to leave PENDING.
	MaxWait time.Duration
	// MaxPolls bounds the number of status calls. Zero means no limit.
	MaxPolls int
	Logger   *slog.Logger
}

func (s *LayoutStrategy) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Extract submits the object, waits for the job, then reads every result page.
func (s *LayoutStrategy) Extract(ctx context.Context, ref StorageReference) ExtractionResult {
	if s.Analyzer == nil {
		return Failure(FailureUnavailable, ErrLayoutUnavailable.Error(), ErrLayoutUnavailable)
	}
	features := s.Features
	if len(features) == 0 {
		features = []Feature{FeatureTables, FeatureForms}
	}

	jobID, err := s.Analyzer.StartAnalysis(ctx, ref.Bucket, ref.RawKey, features)
	if err != nil {
		return Failure(FailureUnavailable, "failed to start layout analysis", err)
	}
	job := &ExtractionJob{JobID: jobID, Status: JobPending}
	logCtx := s.logger().With("jobId", jobID, "bucket", ref.Bucket, "key", ref.RawKey)
	logCtx.Info("Started layout analysis job.")

	first, err := s.await(ctx, logCtx, job)
	if err != nil {
		var extErr *ExtractionError
		if errors.As(err, &extErr) {
			return ExtractionResult{Kind: KindFailure, Reason: extErr.Reason, Err: extErr}
		}
		return Failure(FailureUnavailable, "layout status check failed", err)
	}
	if job.Status == JobFailed {
		msg := first.StatusMessage
		if msg == "" {
			msg = "Unknown error"
		}
		logCtx.Warn("Layout analysis job failed.", "statusMessage", msg)
		return Failure(FailureJobFailed, msg, ErrJobFailed)
	}

	lines, err := s.collectLines(ctx, job, first)
	if err != nil {
		return Failure(FailureUnavailable, "failed to read layout results", err)
	}
	if len(lines) == 0 {
		return Empty("layout analysis found no text")
	}
	logCtx.Info("Layout analysis complete.", "lineCount", len(lines))
	return Success(strings.Join(lines, "\n"))
}

// await polls until the job leaves PENDING and returns the terminal response.
func (s *LayoutStrategy) await(ctx context.Context, logCtx *slog.Logger, job *ExtractionJob) (*AnalysisPage, error) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxWait := s.MaxWait
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()

	for polls := 1; ; polls++ {
		page, err := s.Analyzer.GetAnalysis(ctx, job.JobID, "")
		if err != nil {
			return nil, err
		}
		job.Status = page.Status
		logCtx.Debug("Polled layout job.", "status", page.Status, "poll", polls)
		if page.Status != JobPending {
			return page, nil
		}
		if s.MaxPolls > 0 && polls >= s.MaxPolls {
			reason := fmt.Sprintf("job still pending after %d polls", polls)
			return nil, &ExtractionError{Kind: FailureTimeout, Reason: reason, Err: ErrJobTimeout}
		}

		select {
		case <-time.After(interval):
		case <-deadline.C:
			reason := fmt.Sprintf("job still pending after %s", maxWait)
			return nil, &ExtractionError{Kind: FailureTimeout, Reason: reason, Err: ErrJobTimeout}
		case <-ctx.Done():
			return nil, &ExtractionError{Kind: FailureTimeout, Reason: "cancelled while waiting for job", Err: ctx.Err()}
		}
	}
}

// collectLines walks the result pages starting from the terminal status
// response. A page token seen twice is an error rather than a loop.
func (s *LayoutStrategy) collectLines(ctx context.Context, job *ExtractionJob, page *AnalysisPage) ([]string, error) {
	var lines []string
	seen := map[string]bool{}
	for {
		for _, b := range page.Blocks {
			if b.Type == BlockLine {
				lines = append(lines, b.Text)
			}
		}
		job.PageToken = page.NextPageToken
		if job.PageToken == "" {
			return lines, nil
		}
		if seen[job.PageToken] {
			return nil, fmt.Errorf("page token %q: %w", job.PageToken, ErrRepeatedPageToken)
		}
		seen[job.PageToken] = true
		next, err := s.Analyzer.GetAnalysis(ctx, job.JobID, job.PageToken)
		if err != nil {
			return nil, fmt.Errorf("page token %q: %w", job.PageToken, err)
		}
		page = next
	}
}
