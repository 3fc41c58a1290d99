package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/documentingestion/internal/services"
)

var (
	ingestionInstance *services.IngestionFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("IngestDocuments", ingestDocuments)
}

// main is required by the Go Functions Framework.
func main() {}

// ingestDocuments accepts either a Cloud Storage object event or an
// S3-style notification carrying several records.
func ingestDocuments(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		ingestionInstance, initErr = services.NewIngestion(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	batch, err := services.DecodeBatch(e.Data())
	if err != nil {
		slog.Error("Failed to decode event data", "error", err, "eventId", e.ID(), "data", string(e.Data()))
		return fmt.Errorf("decode event: %w", err)
	}

	resp := ingestionInstance.Process(ctx, batch)
	if resp.StatusCode != http.StatusOK {
		slog.Error("Ingestion batch did not complete.", "statusCode", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("ingestion failed: %s", resp.Body)
	}
	slog.Info(resp.Body, "eventId", e.ID(), "statusCode", resp.StatusCode)
	return nil
}
