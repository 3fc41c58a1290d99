package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUploader struct {
	mu      sync.Mutex
	uploads map[string]string
	failOn  string
}

func (u *recordingUploader) Upload(_ context.Context, localPath, destObject string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if localPath == u.failOn {
		return errors.New("503 backend error")
	}
	if u.uploads == nil {
		u.uploads = map[string]string{}
	}
	u.uploads[destObject] = localPath
	return nil
}

func TestPageObjectName(t *testing.T) {
	assert.Equal(t, "job/00001.pdf", PageObjectName("job/", 1, ".pdf"))
	assert.Equal(t, "job/00012.txt", PageObjectName("job", 12, ".txt"))
	assert.Equal(t, "00003.png", PageObjectName("", 3, ".png"))
	assert.Less(t, PageObjectName("j/", 9, ".txt"), PageObjectName("j/", 10, ".txt"))
}

func TestSplitPages_NonPDFIsSinglePage(t *testing.T) {
	pages, err := splitPages("/tmp/x/source.png", ".png")
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/x/source.png"}, pages)
}

// writeImagePDF builds a PDF with one page per generated PNG.
func writeImagePDF(t *testing.T, dir string, pages int) string {
	t.Helper()
	var images []string
	for i := 0; i < pages; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 40, 60))
		img.Set(i, i, color.RGBA{R: 200, A: 255})
		p := filepath.Join(dir, fmt.Sprintf("img%d.png", i))
		f, err := os.Create(p)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
		images = append(images, p)
	}
	out := filepath.Join(dir, "source.pdf")
	require.NoError(t, api.ImportImagesFile(images, out, nil, nil))
	return out
}

func TestSplitPages_PDF(t *testing.T) {
	source := writeImagePDF(t, t.TempDir(), 3)

	pages, err := splitPages(source, ".pdf")
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, fmt.Sprintf("optimized_%d.pdf", i+1), filepath.Base(p))
		require.FileExists(t, p)
		n, err := api.PageCountFile(p)
		require.NoError(t, err)
		assert.Equal(t, 1, n, p)
	}
}

func TestSplitPages_InvalidPDF(t *testing.T) {
	source := filepath.Join(t.TempDir(), "source.pdf")
	require.NoError(t, os.WriteFile(source, []byte("not a pdf"), 0o644))

	_, err := splitPages(source, ".pdf")
	assert.Error(t, err)
}

func TestUploadPages(t *testing.T) {
	up := &recordingUploader{}
	pages := []string{"/tmp/o_1.pdf", "/tmp/o_2.pdf", "/tmp/o_3.pdf"}

	uris, err := uploadPages(context.Background(), up, "pages", "job-1/", pages)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gs://pages/job-1/00001.pdf",
		"gs://pages/job-1/00002.pdf",
		"gs://pages/job-1/00003.pdf",
	}, uris)
	assert.Equal(t, "/tmp/o_2.pdf", up.uploads["job-1/00002.pdf"])
}

func TestUploadPages_Failure(t *testing.T) {
	up := &recordingUploader{failOn: "/tmp/o_2.pdf"}

	_, err := uploadPages(context.Background(), up, "pages", "job-1/", []string{"/tmp/o_1.pdf", "/tmp/o_2.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient errors", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 4, time.Millisecond, "obj", func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		sentinel := errors.New("permanent")
		err := withRetry(context.Background(), 3, time.Millisecond, "obj", func() error {
			calls++
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := withRetry(ctx, 5, time.Hour, "obj", func() error { return errors.New("fail") })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
