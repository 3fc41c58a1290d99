package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/documentingestion/internal/gcp"
	"github.com/Lllllllleong/documentingestion/internal/models"
)

// PageSplitterConfig holds configuration for the page-splitter service.
type PageSplitterConfig struct {
	ProjectID   string
	PagesBucket string
}

// PageSplitterFunction prepares a source object for layout analysis by
// writing one object per page into the pages bucket.
type PageSplitterFunction struct {
	storageClient *storage.Client
	uploader      pageUploader
	config        PageSplitterConfig
}

// pageUploader copies a local file to an object in the pages bucket.
type pageUploader interface {
	Upload(ctx context.Context, localPath, destObject string) error
}

// NewPageSplitter creates a new PageSplitterFunction instance.
func NewPageSplitter(ctx context.Context) (*PageSplitterFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	config := PageSplitterConfig{
		ProjectID:   projectID,
		PagesBucket: gcp.GetEnv("PAGES_BUCKET", ""),
	}
	if config.PagesBucket == "" {
		return nil, fmt.Errorf("PAGES_BUCKET environment variable must be set")
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	slog.Info("Page splitter logic initialized.", "pagesBucket", config.PagesBucket)
	return &PageSplitterFunction{
		storageClient: storageClient,
		uploader:      &gcsUploader{client: storageClient, bucket: config.PagesBucket, maxRetries: 4, backoff: time.Second},
		config:        config,
	}, nil
}

// Process downloads the source object, splits it into pages and uploads them.
func (f *PageSplitterFunction) Process(ctx context.Context, req *models.PageSplitterRequest) (*models.PageSplitterResponse, error) {
	logCtx := slog.With("gcsBucket", req.SourceBucket, "gcsObject", req.SourceObject, "jobPrefix", req.JobPrefix)
	logCtx.Info("Splitting source into pages.")

	tempDir, err := os.MkdirTemp("", "page-splitter-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	ext := strings.ToLower(filepath.Ext(req.SourceObject))
	sourcePath := filepath.Join(tempDir, "source"+ext)
	if err := gcp.StreamGCSObject(ctx, f.storageClient, req.SourceBucket, req.SourceObject, sourcePath); err != nil {
		logCtx.Error("Failed to download source object", "error", err)
		return nil, err
	}

	pages, err := splitPages(sourcePath, ext)
	if err != nil {
		logCtx.Error("Failed to split source into pages", "error", err)
		return nil, err
	}
	logCtx.Info("Source split locally.", "pageCount", len(pages))

	uris, err := uploadPages(ctx, f.uploader, f.config.PagesBucket, req.JobPrefix, pages)
	if err != nil {
		logCtx.Error("One or more pages failed to upload", "error", err)
		return nil, err
	}
	logCtx.Info("All pages uploaded successfully.")
	return &models.PageSplitterResponse{Status: "success", PageCount: len(pages), PageURIs: uris}, nil
}

// splitPages returns one local file per page, in page order. PDFs are
// optimized and split; any other file is treated as a single page.
func splitPages(sourcePath, ext string) ([]string, error) {
	if ext != ".pdf" {
		return []string{sourcePath}, nil
	}

	optimized := filepath.Join(filepath.Dir(sourcePath), "optimized.pdf")
	if err := optimizePDF(sourcePath, optimized); err != nil {
		return nil, fmt.Errorf("failed to validate/optimize PDF: %w", err)
	}
	pageCount, err := api.PageCountFile(optimized)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := api.SplitFile(optimized, filepath.Dir(optimized), 1, nil); err != nil {
		return nil, fmt.Errorf("failed to split PDF: %w", err)
	}

	base := strings.TrimSuffix(optimized, filepath.Ext(optimized))
	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		pages = append(pages, fmt.Sprintf("%s_%d.pdf", base, i))
	}
	return pages, nil
}

func optimizePDF(inPath, outPath string) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.OptimizeFile(inPath, outPath, cfg)
}

// PageObjectName is the object name of page n (1-based) under a job prefix.
// Zero padding keeps lexical listing order equal to page order.
func PageObjectName(jobPrefix string, n int, ext string) string {
	return fmt.Sprintf("%s%05d%s", ensureSlash(jobPrefix), n, ext)
}

func ensureSlash(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

// uploadPages uploads pages concurrently and returns their URIs in page order.
func uploadPages(ctx context.Context, up pageUploader, bucket, jobPrefix string, pages []string) ([]string, error) {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)

	uris := make([]string, len(pages))
	for i, localPath := range pages {
		pageNumber := i + 1
		dest := PageObjectName(jobPrefix, pageNumber, strings.ToLower(filepath.Ext(localPath)))
		uris[i] = fmt.Sprintf("gs://%s/%s", bucket, dest)
		eg.Go(func() error {
			if err := up.Upload(gctx, localPath, dest); err != nil {
				return fmt.Errorf("page %d: %w", pageNumber, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return uris, nil
}

type gcsUploader struct {
	client     *storage.Client
	bucket     string
	maxRetries int
	backoff    time.Duration
}

// Upload writes one page with retries and exponential backoff.
func (u *gcsUploader) Upload(ctx context.Context, localPath, destObject string) error {
	return withRetry(ctx, u.maxRetries, u.backoff, destObject, func() error {
		localFileReader, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("could not open local file %s: %w", localPath, err)
		}
		defer localFileReader.Close()

		writeCtx, cancel := context.WithTimeout(ctx, time.Second*50)
		defer cancel()

		gcsWriter := u.client.Bucket(u.bucket).Object(destObject).NewWriter(writeCtx)
		if _, err := io.Copy(gcsWriter, localFileReader); err != nil {
			_ = gcsWriter.Close()
			return fmt.Errorf("io.Copy to GCS failed: %w", err)
		}
		if err := gcsWriter.Close(); err != nil {
			return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
		}
		return nil
	})
}

// withRetry runs op up to maxRetries times, doubling the wait between attempts.
func withRetry(ctx context.Context, maxRetries int, backoff time.Duration, name string, op func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries-1 {
			break
		}
		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", name,
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", name, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "gcsObject", name, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", name, lastErr)
}
