package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Lllllllleong/documentingestion/internal/convert"
	"github.com/Lllllllleong/documentingestion/internal/gcp"
	"github.com/Lllllllleong/documentingestion/internal/localfs"
	"github.com/Lllllllleong/documentingestion/internal/models"
	"github.com/Lllllllleong/documentingestion/internal/pipeline"
	"github.com/Lllllllleong/documentingestion/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [key...]",
	Short: "Ingest documents into the index",
	Long: `Ingest reads records from a batch file (--records) or takes keys as
arguments together with --bucket. Objects are read from Cloud Storage, or from
<root>/<bucket>/<key> when --root is set.`,
	RunE: runIngest,
}

var (
	recordsFile  string
	bucketName   string
	localRoot    string
	pandocPath   string
	enableLayout bool
	workflowLoc  string
	workflowID   string
	pollInterval time.Duration
	maxWait      time.Duration
)

func init() {
	f := ingestCmd.Flags()
	f.StringVarP(&recordsFile, "records", "r", "", "YAML batch file, or a JSON storage notification")
	f.StringVarP(&bucketName, "bucket", "b", "", "Bucket for keys given as arguments")
	f.StringVar(&localRoot, "root", "", "Serve objects from this directory instead of Cloud Storage")
	f.StringVar(&pandocPath, "pandoc", gcp.GetEnv("PANDOC_PATH", "pandoc"), "Path to the pandoc binary")
	f.BoolVar(&enableLayout, "ocr", false, "Enable layout analysis through the Cloud Workflows job")
	f.StringVar(&workflowLoc, "workflow-location", gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"), "Region of the layout-analysis workflow")
	f.StringVar(&workflowID, "workflow", gcp.GetEnv("LAYOUT_WORKFLOW_ID", "layout-analysis"), "Layout-analysis workflow ID")
	f.DurationVar(&pollInterval, "poll-interval", pipeline.DefaultPollInterval, "Delay between layout job status checks")
	f.DurationVar(&maxWait, "max-wait", pipeline.DefaultMaxWait, "Give up on a layout job after this long")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	batch, err := buildBatch(recordsFile, bucketName, args)
	if err != nil {
		return err
	}

	idx, closeIndex, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer closeIndex()

	deps := pipeline.Deps{
		Converter: &convert.Pandoc{Path: pandocPath},
		Index:     idx,
		Logger:    slog.Default(),
	}

	var storageClient *storage.Client
	if localRoot != "" {
		deps.Store = localfs.New(localRoot)
	} else {
		storageClient, err = storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create Storage client: %w", err)
		}
		defer storageClient.Close()
		deps.Store = gcp.NewObjectStore(storageClient)
	}

	if enableLayout {
		analyzer, closeAnalyzer, err := newAnalyzer(ctx, storageClient)
		if err != nil {
			return err
		}
		defer closeAnalyzer()
		deps.Analyzer = analyzer
	}

	controller := pipeline.NewController(deps, pipeline.Config{
		IndexName:    indexName,
		PollInterval: pollInterval,
		MaxWait:      maxWait,
	})
	resp := services.NewIngestionWithController(controller).Process(ctx, batch)

	out, err := yaml.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return errors.New(resp.Body)
	}
	return nil
}

// newAnalyzer builds the workflow-backed analyzer. Results are always read
// from Cloud Storage, even when sources come from --root.
func newAnalyzer(ctx context.Context, storageClient *storage.Client) (*gcp.WorkflowAnalyzer, func(), error) {
	if projectID == "" {
		return nil, nil, errors.New("--project (or PROJECT_ID) is required with --ocr")
	}
	if localRoot != "" {
		return nil, nil, errors.New("--ocr reads sources through the workflow and cannot be combined with --root")
	}
	execClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	analyzer, err := gcp.NewWorkflowAnalyzer(execClient, storageClient, gcp.WorkflowAnalyzerConfig{
		ProjectID:        projectID,
		WorkflowLocation: workflowLoc,
		WorkflowID:       workflowID,
	})
	if err != nil {
		execClient.Close()
		return nil, nil, err
	}
	return analyzer, func() { execClient.Close() }, nil
}

// buildBatch reads the batch file when given, otherwise pairs keys with bucket.
func buildBatch(path, bucket string, keys []string) (models.IngestionBatch, error) {
	if path != "" {
		if len(keys) > 0 {
			return models.IngestionBatch{}, errors.New("pass either --records or keys, not both")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return models.IngestionBatch{}, err
		}
		return parseBatch(data)
	}
	if bucket == "" || len(keys) == 0 {
		return models.IngestionBatch{}, errors.New("nothing to ingest: pass --records, or --bucket with one or more keys")
	}
	batch := models.IngestionBatch{Records: make([]models.IngestionRecord, 0, len(keys))}
	for _, k := range keys {
		batch.Records = append(batch.Records, models.IngestionRecord{Bucket: bucket, Key: k})
	}
	return batch, nil
}

// parseBatch accepts the YAML batch format and falls back to the storage
// notification shapes handled by services.DecodeBatch.
func parseBatch(data []byte) (models.IngestionBatch, error) {
	var batch models.IngestionBatch
	if err := yaml.Unmarshal(data, &batch); err == nil && len(batch.Records) > 0 {
		return batch, nil
	}
	return services.DecodeBatch(data)
}
