package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConversionStrategy converts office documents to plain text with an
// external converter. It never returns an error: every problem is reported
// as Empty or Failure so the dispatcher can fall back.
type ConversionStrategy struct {
	Store     ObjectStore
	Converter Converter
	// TempDir is the parent of the per-call scratch directory. Empty means os.TempDir().
	TempDir string
}

const (
	conversionFrom = "docx"
	conversionTo   = "plain"
)

// Extract downloads the object into a scratch directory, which is removed on return.
func (s *ConversionStrategy) Extract(ctx context.Context, ref StorageReference) ExtractionResult {
	if s.Converter == nil {
		return Failure(FailureUnavailable, "no converter configured", nil)
	}
	tempDir, err := os.MkdirTemp(s.TempDir, "docx-convert-*")
	if err != nil {
		return Failure(FailureConverter, "failed to create temp dir", err)
	}
	defer os.RemoveAll(tempDir)

	data, err := s.Store.GetObject(ctx, ref.Bucket, ref.RawKey)
	if err != nil {
		return Failure(FailureStorageAccess, "failed to read object", err)
	}
	inputPath := filepath.Join(tempDir, "input."+conversionFrom)
	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return Failure(FailureConverter, "failed to stage object locally", err)
	}

	out, err := s.Converter.Convert(ctx, inputPath, conversionFrom, conversionTo)
	if err != nil {
		return Failure(FailureConverter, "converter could not run", err)
	}
	if out.ExitCode != 0 {
		reason := fmt.Sprintf("converter exited with status %d: %s", out.ExitCode, strings.TrimSpace(out.Stderr))
		return Failure(FailureConverter, reason, ErrConverterExit)
	}
	if strings.TrimSpace(out.Stdout) == "" {
		return Empty("converter produced no output")
	}
	return Success(out.Stdout)
}
