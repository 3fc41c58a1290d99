package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

var errNotFound = errors.New("object not found")

type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	headErr  error
	getKeys  []string
	headKeys []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, modified: map[string]time.Time{}}
}

func (s *fakeStore) put(bucket, key, content string) {
	s.objects[bucket+"/"+key] = []byte(content)
}

func (s *fakeStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getKeys = append(s.getKeys, key)
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("gs://%s/%s: %w", bucket, key, errNotFound)
	}
	return data, nil
}

func (s *fakeStore) HeadObject(_ context.Context, bucket, key string) (models.ObjectMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headKeys = append(s.headKeys, key)
	if s.headErr != nil {
		return models.ObjectMetadata{}, s.headErr
	}
	if _, ok := s.objects[bucket+"/"+key]; !ok {
		return models.ObjectMetadata{}, errNotFound
	}
	return models.ObjectMetadata{LastModified: s.modified[bucket+"/"+key]}, nil
}

type fakeConverter struct {
	out        ConversionOutput
	err        error
	calls      int
	sawInput   bool
	inputPath  string
	from, to   string
	inputBytes []byte
}

func (c *fakeConverter) Convert(_ context.Context, inputPath, from, to string) (ConversionOutput, error) {
	c.calls++
	c.inputPath, c.from, c.to = inputPath, from, to
	if data, err := os.ReadFile(inputPath); err == nil {
		c.sawInput = true
		c.inputBytes = data
	}
	return c.out, c.err
}

type fakeAnalyzer struct {
	pendingPolls  int
	fail          bool
	statusMessage string
	pages         [][]Block
	startErr      error

	startCalls  int
	startKey    string
	features    []Feature
	statusCalls int
	tokens      []string
}

func (a *fakeAnalyzer) StartAnalysis(_ context.Context, _, key string, features []Feature) (string, error) {
	a.startCalls++
	a.startKey = key
	a.features = features
	if a.startErr != nil {
		return "", a.startErr
	}
	return "job-1", nil
}

func (a *fakeAnalyzer) GetAnalysis(_ context.Context, jobID, pageToken string) (*AnalysisPage, error) {
	if jobID != "job-1" {
		return nil, fmt.Errorf("unknown job %q", jobID)
	}
	a.tokens = append(a.tokens, pageToken)
	if pageToken == "" {
		a.statusCalls++
		if a.statusCalls <= a.pendingPolls {
			return &AnalysisPage{Status: JobPending}, nil
		}
		if a.fail {
			return &AnalysisPage{Status: JobFailed, StatusMessage: a.statusMessage}, nil
		}
		return a.page(0), nil
	}
	var n int
	if _, err := fmt.Sscanf(pageToken, "page-%d", &n); err != nil {
		return nil, fmt.Errorf("bad token %q", pageToken)
	}
	return a.page(n), nil
}

func (a *fakeAnalyzer) page(n int) *AnalysisPage {
	p := &AnalysisPage{Status: JobSucceeded}
	if n < len(a.pages) {
		p.Blocks = a.pages[n]
	}
	if n+1 < len(a.pages) {
		p.NextPageToken = fmt.Sprintf("page-%d", n+1)
	}
	return p
}

type fakeIndex struct {
	mu     sync.Mutex
	docs   map[string]models.DocumentRecord
	names  []string
	puts   int
	failID string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[string]models.DocumentRecord{}}
}

func (x *fakeIndex) Put(_ context.Context, index, id string, doc models.DocumentRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.puts++
	x.names = append(x.names, index)
	if id == x.failID {
		return errors.New("index rejected document")
	}
	x.docs[id] = doc
	return nil
}

type stubStrategy struct {
	result ExtractionResult
	calls  int
}

func (s *stubStrategy) Extract(context.Context, StorageReference) ExtractionResult {
	s.calls++
	return s.result
}
