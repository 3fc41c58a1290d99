package pipeline

import (
	"context"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

// ObjectStore reads uploaded objects. Keys are always raw keys.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	HeadObject(ctx context.Context, bucket, key string) (models.ObjectMetadata, error)
}

// ConversionOutput is what an external converter process reported.
type ConversionOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Converter turns a local file into plain text.
type Converter interface {
	Convert(ctx context.Context, inputPath, from, to string) (ConversionOutput, error)
}

// Feature is an analysis feature requested from the layout service.
type Feature string

const (
	FeatureTables Feature = "TABLES"
	FeatureForms  Feature = "FORMS"
)

// JobStatus is the state of an asynchronous layout job.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobSucceeded JobStatus = "SUCCEEDED"
	JobFailed    JobStatus = "FAILED"
)

// BlockType tags a unit of layout output.
type BlockType string

const (
	BlockPage BlockType = "PAGE"
	BlockLine BlockType = "LINE"
)

// Block is one unit of layout output.
type Block struct {
	Type BlockType
	Text string
}

// AnalysisPage is one response of GetAnalysis. Blocks and NextPageToken are
// only meaningful once Status is JobSucceeded.
type AnalysisPage struct {
	Status        JobStatus
	StatusMessage string
	Blocks        []Block
	NextPageToken string
}

// LayoutAnalyzer runs asynchronous OCR/layout jobs.
type LayoutAnalyzer interface {
	StartAnalysis(ctx context.Context, bucket, key string, features []Feature) (string, error)
	GetAnalysis(ctx context.Context, jobID, pageToken string) (*AnalysisPage, error)
}

// Index stores documents by id. Put overwrites and is visible to readers
// as soon as it returns.
type Index interface {
	Put(ctx context.Context, index, id string, doc models.DocumentRecord) error
}
