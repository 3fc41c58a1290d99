package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/documentingestion/internal/models"
	"github.com/Lllllllleong/documentingestion/internal/services"
)

var (
	splitterInstance *services.PageSplitterFunction
	once             sync.Once
	initErr          error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Called by the layout-analysis workflow.
	functions.HTTP("HandleSplitPages", handleSplitPages)
}

// main is required by the Go Functions Framework.
func main() {}

func handleSplitPages(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		splitterInstance, initErr = services.NewPageSplitter(context.Background())
	})
	if initErr != nil {
		slog.Error("Page splitter initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.PageSplitterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := splitterInstance.Process(r.Context(), &req)
	if err != nil {
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
