package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"

	"github.com/Lllllllleong/documentingestion/internal/convert"
	"github.com/Lllllllleong/documentingestion/internal/gcp"
	"github.com/Lllllllleong/documentingestion/internal/models"
	"github.com/Lllllllleong/documentingestion/internal/pipeline"
)

// IngestionConfig holds configuration for the document-ingestion service.
type IngestionConfig struct {
	ProjectID        string
	IndexName        string
	WorkflowLocation string
	LayoutWorkflowID string
	PandocPath       string
	PollInterval     time.Duration
	MaxWait          time.Duration
	ResultPageSize   int
}

// IngestionFunction holds the dependencies for the ingestion logic.
type IngestionFunction struct {
	storageClient    *storage.Client
	firestoreClient  *firestore.Client
	executionsClient *executions.Client
	controller       *pipeline.Controller
	config           IngestionConfig
}

// StatusResponse is the invocation result reported back to the caller.
type StatusResponse struct {
	StatusCode int                    `json:"statusCode" yaml:"statusCode"`
	Body       string                 `json:"body" yaml:"body"`
	Outcomes   []models.RecordOutcome `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// loadIngestionConfig loads and validates all necessary environment variables for this service.
func loadIngestionConfig() (*IngestionConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	pollInterval, err := gcp.GetEnvDuration("LAYOUT_POLL_INTERVAL", pipeline.DefaultPollInterval)
	if err != nil {
		return nil, err
	}
	maxWait, err := gcp.GetEnvDuration("LAYOUT_MAX_WAIT", pipeline.DefaultMaxWait)
	if err != nil {
		return nil, err
	}
	pageSize, err := strconv.Atoi(gcp.GetEnv("LAYOUT_RESULT_PAGE_SIZE", strconv.Itoa(gcp.DefaultResultPageSize)))
	if err != nil {
		return nil, fmt.Errorf("LAYOUT_RESULT_PAGE_SIZE: %w", err)
	}

	return &IngestionConfig{
		ProjectID:        projectID,
		IndexName:        gcp.GetEnv("INDEX_NAME", pipeline.DefaultIndexName),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		LayoutWorkflowID: gcp.GetEnv("LAYOUT_WORKFLOW_ID", "layout-analysis"),
		PandocPath:       gcp.GetEnv("PANDOC_PATH", "pandoc"),
		PollInterval:     pollInterval,
		MaxWait:          maxWait,
		ResultPageSize:   pageSize,
	}, nil
}

// NewIngestion creates a new IngestionFunction instance with live GCP clients.
func NewIngestion(ctx context.Context) (*IngestionFunction, error) {
	config, err := loadIngestionConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	analyzer, err := gcp.NewWorkflowAnalyzer(executionsClient, storageClient, gcp.WorkflowAnalyzerConfig{
		ProjectID:        config.ProjectID,
		WorkflowLocation: config.WorkflowLocation,
		WorkflowID:       config.LayoutWorkflowID,
		ResultPageSize:   config.ResultPageSize,
	})
	if err != nil {
		return nil, err
	}

	controller := pipeline.NewController(pipeline.Deps{
		Store:     gcp.NewObjectStore(storageClient),
		Converter: &convert.Pandoc{Path: config.PandocPath},
		Analyzer:  analyzer,
		Index:     gcp.NewFirestoreIndex(firestoreClient),
		Logger:    slog.Default(),
	}, pipeline.Config{
		IndexName:    config.IndexName,
		PollInterval: config.PollInterval,
		MaxWait:      config.MaxWait,
	})

	slog.Info("Document ingestion logic initialized.", "index", config.IndexName, "layoutWorkflow", config.LayoutWorkflowID)
	return &IngestionFunction{
		storageClient:    storageClient,
		firestoreClient:  firestoreClient,
		executionsClient: executionsClient,
		controller:       controller,
		config:           *config,
	}, nil
}

// NewIngestionWithController is used when the collaborators are built elsewhere.
func NewIngestionWithController(controller *pipeline.Controller) *IngestionFunction {
	return &IngestionFunction{controller: controller}
}

// Process runs one batch and converts the result into a status response.
func (f *IngestionFunction) Process(ctx context.Context, batch models.IngestionBatch) StatusResponse {
	result := f.controller.Run(ctx, batch)
	code := http.StatusOK
	if !result.OK {
		code = http.StatusInternalServerError
	}
	return StatusResponse{StatusCode: code, Body: result.Message, Outcomes: result.Outcomes}
}

// Close releases the GCP clients.
func (f *IngestionFunction) Close() error {
	var firstErr error
	if f.storageClient != nil {
		firstErr = f.storageClient.Close()
	}
	if f.firestoreClient != nil {
		if err := f.firestoreClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if f.executionsClient != nil {
		if err := f.executionsClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
