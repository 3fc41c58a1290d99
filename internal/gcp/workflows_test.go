package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"testing"

	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/documentingestion/internal/models"
	"github.com/Lllllllleong/documentingestion/internal/pipeline"
)

type fakeExecutions struct {
	created *executionspb.CreateExecutionRequest
	states  []executionspb.Execution_State
	polls   int
	result  string
	errMsg  string
}

func (f *fakeExecutions) CreateExecution(_ context.Context, req *executionspb.CreateExecutionRequest, _ ...gax.CallOption) (*executionspb.Execution, error) {
	f.created = req
	return &executionspb.Execution{Name: req.Parent + "/executions/exec-1"}, nil
}

func (f *fakeExecutions) GetExecution(_ context.Context, req *executionspb.GetExecutionRequest, _ ...gax.CallOption) (*executionspb.Execution, error) {
	state := f.states[len(f.states)-1]
	if f.polls < len(f.states) {
		state = f.states[f.polls]
	}
	f.polls++
	exec := &executionspb.Execution{Name: req.Name, State: state, Result: f.result}
	if f.errMsg != "" {
		exec.Error = &executionspb.Execution_Error{Payload: f.errMsg}
	}
	return exec, nil
}

// fakeResults pages over sorted object names using the index as the token.
type fakeResults struct {
	objects map[string]string
}

func (f *fakeResults) ListPage(_ context.Context, bucket, prefix string, pageSize int, pageToken string) ([]string, string, error) {
	if bucket != "results" {
		return nil, "", errors.New("bucket not found")
	}
	var names []string
	for name := range f.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	start := 0
	if pageToken != "" {
		var err error
		if start, err = strconv.Atoi(pageToken); err != nil {
			return nil, "", err
		}
	}
	end := start + pageSize
	next := strconv.Itoa(end)
	if end >= len(names) {
		end = len(names)
		next = ""
	}
	return names[start:end], next, nil
}

func (f *fakeResults) Read(_ context.Context, _, name string) (string, error) {
	text, ok := f.objects[name]
	if !ok {
		return "", fmt.Errorf("%s not found", name)
	}
	return text, nil
}

func testAnalyzer(exec *fakeExecutions, results *fakeResults, pageSize int) *WorkflowAnalyzer {
	a := newWorkflowAnalyzer(exec, results, WorkflowAnalyzerConfig{
		ProjectID: "proj", WorkflowLocation: "us-central1", WorkflowID: "layout-analysis", ResultPageSize: pageSize,
	})
	a.newPrefix = func() string { return "job-prefix/" }
	return a
}

func TestWorkflowAnalyzer_StartAnalysis(t *testing.T) {
	exec := &fakeExecutions{}
	a := testAnalyzer(exec, &fakeResults{}, 0)

	jobID, err := a.StartAnalysis(context.Background(), "docs", "scans/my%20scan.pdf", []pipeline.Feature{pipeline.FeatureTables, pipeline.FeatureForms})
	require.NoError(t, err)
	assert.Equal(t, "projects/proj/locations/us-central1/workflows/layout-analysis/executions/exec-1", jobID)
	assert.Equal(t, "projects/proj/locations/us-central1/workflows/layout-analysis", exec.created.Parent)

	var args models.LayoutWorkflowArgs
	require.NoError(t, json.Unmarshal([]byte(exec.created.Execution.Argument), &args))
	assert.Equal(t, models.LayoutWorkflowArgs{
		SourceBucket:  "docs",
		SourceObject:  "scans/my%20scan.pdf",
		Features:      []string{"TABLES", "FORMS"},
		ResultsPrefix: "job-prefix/",
	}, args)
}

func TestWorkflowAnalyzer_PagesThroughResults(t *testing.T) {
	result, _ := json.Marshal(models.LayoutWorkflowResult{ResultsBucket: "results", ResultsPrefix: "job-prefix/", PageCount: 3})
	exec := &fakeExecutions{
		states: []executionspb.Execution_State{executionspb.Execution_QUEUED, executionspb.Execution_ACTIVE, executionspb.Execution_SUCCEEDED},
		result: string(result),
	}
	results := &fakeResults{objects: map[string]string{
		"job-prefix/00001.txt": "Invoice 42\n\nTotal: 10\n",
		"job-prefix/00002.txt": "Second page",
		"job-prefix/00003.txt": "Third page\r\n",
	}}
	a := testAnalyzer(exec, results, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		page, err := a.GetAnalysis(ctx, "exec-1", "")
		require.NoError(t, err)
		assert.Equal(t, pipeline.JobPending, page.Status)
		assert.Empty(t, page.Blocks)
	}

	first, err := a.GetAnalysis(ctx, "exec-1", "")
	require.NoError(t, err)
	assert.Equal(t, pipeline.JobSucceeded, first.Status)
	assert.Equal(t, "2", first.NextPageToken)
	assert.Equal(t, []string{"Invoice 42", "Total: 10", "Second page"}, lineTexts(first.Blocks))

	second, err := a.GetAnalysis(ctx, "exec-1", first.NextPageToken)
	require.NoError(t, err)
	assert.Empty(t, second.NextPageToken)
	assert.Equal(t, []string{"Third page"}, lineTexts(second.Blocks))
}

func TestWorkflowAnalyzer_FailedExecution(t *testing.T) {
	exec := &fakeExecutions{
		states: []executionspb.Execution_State{executionspb.Execution_FAILED},
		errMsg: "page-transcriber returned 500",
	}
	a := testAnalyzer(exec, &fakeResults{}, 0)

	page, err := a.GetAnalysis(context.Background(), "exec-1", "")
	require.NoError(t, err)
	assert.Equal(t, pipeline.JobFailed, page.Status)
	assert.Equal(t, "page-transcriber returned 500", page.StatusMessage)
}

func TestWorkflowAnalyzer_CancelledWithoutPayload(t *testing.T) {
	exec := &fakeExecutions{states: []executionspb.Execution_State{executionspb.Execution_CANCELLED}}
	a := testAnalyzer(exec, &fakeResults{}, 0)

	page, err := a.GetAnalysis(context.Background(), "exec-1", "")
	require.NoError(t, err)
	assert.Equal(t, pipeline.JobFailed, page.Status)
	assert.Contains(t, page.StatusMessage, "CANCELLED")
}

func TestWorkflowAnalyzer_BadResult(t *testing.T) {
	exec := &fakeExecutions{states: []executionspb.Execution_State{executionspb.Execution_SUCCEEDED}, result: "not json"}
	a := testAnalyzer(exec, &fakeResults{}, 0)

	_, err := a.GetAnalysis(context.Background(), "exec-1", "")
	assert.Error(t, err)
}

func TestWorkflowAnalyzer_DrivesLayoutStrategy(t *testing.T) {
	result, _ := json.Marshal(models.LayoutWorkflowResult{ResultsBucket: "results", ResultsPrefix: "job-prefix/"})
	exec := &fakeExecutions{
		states: []executionspb.Execution_State{executionspb.Execution_ACTIVE, executionspb.Execution_SUCCEEDED},
		result: string(result),
	}
	results := &fakeResults{objects: map[string]string{}}
	for i := 1; i <= 5; i++ {
		results.objects[fmt.Sprintf("job-prefix/%05d.txt", i)] = fmt.Sprintf("page %d", i)
	}
	s := &pipeline.LayoutStrategy{Analyzer: testAnalyzer(exec, results, 2), PollInterval: 1}

	res := s.Extract(context.Background(), pipeline.Resolve("docs", "scan.pdf"))
	require.True(t, res.OK(), res.String())
	assert.Equal(t, "page 1\npage 2\npage 3\npage 4\npage 5", res.Text)
}

func TestLineBlocks(t *testing.T) {
	blocks := LineBlocks("  indented\n\n\t\nlast  ")
	assert.Equal(t, []string{"  indented", "last"}, lineTexts(blocks))
	assert.Empty(t, LineBlocks(""))
}

func TestJobStatus(t *testing.T) {
	assert.Equal(t, pipeline.JobPending, jobStatus(executionspb.Execution_STATE_UNSPECIFIED))
	assert.Equal(t, pipeline.JobPending, jobStatus(executionspb.Execution_ACTIVE))
	assert.Equal(t, pipeline.JobPending, jobStatus(executionspb.Execution_QUEUED))
	assert.Equal(t, pipeline.JobSucceeded, jobStatus(executionspb.Execution_SUCCEEDED))
	assert.Equal(t, pipeline.JobFailed, jobStatus(executionspb.Execution_FAILED))
	assert.Equal(t, pipeline.JobFailed, jobStatus(executionspb.Execution_CANCELLED))
}

func lineTexts(blocks []pipeline.Block) []string {
	var out []string
	for _, b := range blocks {
		if b.Type == pipeline.BlockLine {
			out = append(out, b.Text)
		}
	}
	return out
}
