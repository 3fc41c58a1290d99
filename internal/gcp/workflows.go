package gcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/google/uuid"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/documentingestion/internal/models"
	"github.com/Lllllllleong/documentingestion/internal/pipeline"
)

// DefaultResultPageSize is how many per-page result objects one GetAnalysis call returns.
const DefaultResultPageSize = 10

// executionsAPI is the subset of *executions.Client used here.
type executionsAPI interface {
	CreateExecution(ctx context.Context, req *executionspb.CreateExecutionRequest, opts ...gax.CallOption) (*executionspb.Execution, error)
	GetExecution(ctx context.Context, req *executionspb.GetExecutionRequest, opts ...gax.CallOption) (*executionspb.Execution, error)
}

// resultLister lists and reads the per-page text objects a layout workflow writes.
type resultLister interface {
	ListPage(ctx context.Context, bucket, prefix string, pageSize int, pageToken string) (names []string, next string, err error)
	Read(ctx context.Context, bucket, name string) (string, error)
}

// WorkflowAnalyzerConfig names the layout-analysis workflow.
type WorkflowAnalyzerConfig struct {
	ProjectID        string
	WorkflowLocation string
	WorkflowID       string
	ResultPageSize   int
}

// WorkflowAnalyzer runs layout analysis as a Cloud Workflows execution.
// The execution name is the job ID. A successful execution returns a
// models.LayoutWorkflowResult pointing at one text object per source page;
// those objects are paged through with the storage list page token.
type WorkflowAnalyzer struct {
	executions executionsAPI
	results    resultLister
	parent     string
	pageSize   int
	newPrefix  func() string
}

// NewWorkflowAnalyzer builds an analyzer from live clients.
func NewWorkflowAnalyzer(execClient *executions.Client, storageClient *storage.Client, cfg WorkflowAnalyzerConfig) (*WorkflowAnalyzer, error) {
	if cfg.ProjectID == "" || cfg.WorkflowLocation == "" || cfg.WorkflowID == "" {
		return nil, fmt.Errorf("NewWorkflowAnalyzer: projectID, location and workflowID cannot be empty")
	}
	return newWorkflowAnalyzer(execClient, &gcsResults{client: storageClient}, cfg), nil
}

func newWorkflowAnalyzer(exec executionsAPI, results resultLister, cfg WorkflowAnalyzerConfig) *WorkflowAnalyzer {
	pageSize := cfg.ResultPageSize
	if pageSize <= 0 {
		pageSize = DefaultResultPageSize
	}
	return &WorkflowAnalyzer{
		executions: exec,
		results:    results,
		parent:     fmt.Sprintf("projects/%s/locations/%s/workflows/%s", cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID),
		pageSize:   pageSize,
		newPrefix:  func() string { return uuid.NewString() + "/" },
	}
}

// StartAnalysis starts a workflow execution for gs://bucket/key.
func (a *WorkflowAnalyzer) StartAnalysis(ctx context.Context, bucket, key string, features []pipeline.Feature) (string, error) {
	args := models.LayoutWorkflowArgs{
		SourceBucket:  bucket,
		SourceObject:  key,
		ResultsPrefix: a.newPrefix(),
	}
	for _, f := range features {
		args.Features = append(args.Features, string(f))
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	exec, err := a.executions.CreateExecution(ctx, &executionspb.CreateExecutionRequest{
		Parent:    a.parent,
		Execution: &executionspb.Execution{Argument: string(payload)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return exec.GetName(), nil
}

// GetAnalysis reports the execution state and, once it has succeeded, one
// page of LINE blocks.
func (a *WorkflowAnalyzer) GetAnalysis(ctx context.Context, jobID, pageToken string) (*pipeline.AnalysisPage, error) {
	exec, err := a.executions.GetExecution(ctx, &executionspb.GetExecutionRequest{Name: jobID})
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow execution %s: %w", jobID, err)
	}

	status := jobStatus(exec.GetState())
	switch status {
	case pipeline.JobPending:
		return &pipeline.AnalysisPage{Status: status}, nil
	case pipeline.JobFailed:
		msg := exec.GetError().GetPayload()
		if msg == "" {
			msg = fmt.Sprintf("workflow execution ended in state %s", exec.GetState())
		}
		return &pipeline.AnalysisPage{Status: status, StatusMessage: msg}, nil
	}

	var result models.LayoutWorkflowResult
	if err := json.Unmarshal([]byte(exec.GetResult()), &result); err != nil {
		return nil, fmt.Errorf("failed to parse workflow result for %s: %w", jobID, err)
	}
	if result.ResultsBucket == "" {
		return nil, fmt.Errorf("workflow result for %s names no results bucket", jobID)
	}

	names, next, err := a.results.ListPage(ctx, result.ResultsBucket, result.ResultsPrefix, a.pageSize, pageToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list layout results: %w", err)
	}
	page := &pipeline.AnalysisPage{Status: status, NextPageToken: next}
	for _, name := range names {
		text, err := a.results.Read(ctx, result.ResultsBucket, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read layout result %s: %w", name, err)
		}
		page.Blocks = append(page.Blocks, pipeline.Block{Type: pipeline.BlockPage, Text: name})
		page.Blocks = append(page.Blocks, LineBlocks(text)...)
	}
	return page, nil
}

func jobStatus(state executionspb.Execution_State) pipeline.JobStatus {
	switch state {
	case executionspb.Execution_SUCCEEDED:
		return pipeline.JobSucceeded
	case executionspb.Execution_FAILED, executionspb.Execution_CANCELLED, executionspb.Execution_UNAVAILABLE:
		return pipeline.JobFailed
	default:
		return pipeline.JobPending
	}
}

// LineBlocks splits a transcribed page into LINE blocks, dropping blank lines.
func LineBlocks(text string) []pipeline.Block {
	var blocks []pipeline.Block
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		blocks = append(blocks, pipeline.Block{Type: pipeline.BlockLine, Text: line})
	}
	return blocks
}

type gcsResults struct {
	client *storage.Client
}

func (r *gcsResults) ListPage(ctx context.Context, bucket, prefix string, pageSize int, pageToken string) ([]string, string, error) {
	it := r.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var attrs []*storage.ObjectAttrs
	next, err := iterator.NewPager(it, pageSize, pageToken).NextPage(&attrs)
	if err != nil {
		return nil, "", err
	}
	names := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if strings.HasSuffix(a.Name, ".txt") {
			names = append(names, a.Name)
		}
	}
	return names, next, nil
}

func (r *gcsResults) Read(ctx context.Context, bucket, name string) (string, error) {
	reader, err := r.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
