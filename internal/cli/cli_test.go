package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

func TestParseBatch_YAML(t *testing.T) {
	batch, err := parseBatch([]byte(`
records:
  - bucket: docs
    key: reports/q1.txt
  - bucket: docs
    key: folder/my%20file.txt
`))
	require.NoError(t, err)
	assert.Equal(t, []models.IngestionRecord{
		{Bucket: "docs", Key: "reports/q1.txt"},
		{Bucket: "docs", Key: "folder/my%20file.txt"},
	}, batch.Records)
}

func TestParseBatch_Notification(t *testing.T) {
	batch, err := parseBatch([]byte(`{"Records":[{"s3":{"bucket":{"name":"docs"},"object":{"key":"a+b.txt"}}}]}`))
	require.NoError(t, err)
	assert.Equal(t, []models.IngestionRecord{{Bucket: "docs", Key: "a+b.txt"}}, batch.Records)
}

func TestBuildBatch(t *testing.T) {
	batch, err := buildBatch("", "docs", []string{"a.txt", "b.md"})
	require.NoError(t, err)
	assert.Len(t, batch.Records, 2)
	assert.Equal(t, "docs", batch.Records[1].Bucket)

	_, err = buildBatch("", "", []string{"a.txt"})
	assert.Error(t, err)

	_, err = buildBatch("batch.yaml", "docs", []string{"a.txt"})
	assert.Error(t, err)
}

func TestIngestThenGet(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "notes", "todo+list.md"), []byte("# Todo\n- ship"), 0o644))
	dbPath := filepath.Join(t.TempDir(), "index.db")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"ingest", "--root", root, "--sqlite-path", dbPath, "--index-name", "cli-test",
		"--bucket", "docs", "notes/todo+list.md"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "1 indexed, 0 skipped, 0 failed")

	out.Reset()
	rootCmd.SetArgs([]string{"get", "--sqlite-path", dbPath, "--index-name", "cli-test", "notes/todo+list.md"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "title: todo list.md")
	assert.Contains(t, out.String(), "file_type: md")

	rootCmd.SetArgs([]string{"get", "--sqlite-path", dbPath, "--index-name", "cli-test", "notes/missing.md"})
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))

	out.Reset()
	rootCmd.SetArgs([]string{"count", "--sqlite-path", dbPath, "--index-name", "cli-test"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Equal(t, "cli-test: 1 documents\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"count", "--sqlite-path", dbPath, "--index-name", "other"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Equal(t, "other: 0 documents\n", out.String())
}
