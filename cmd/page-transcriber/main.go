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
	transcriberInstance *services.PageTranscriberFunction
	once                sync.Once
	initErr             error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleTranscribePage" is the entry point name the workflow calls.
	functions.HTTP("HandleTranscribePage", handleTranscribePage)
}

// main is required by the Go Functions Framework.
func main() {}

func handleTranscribePage(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		transcriberInstance, initErr = services.NewPageTranscriber(context.Background())
	})
	if initErr != nil {
		slog.Error("Page transcriber initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.PageTranscriberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := transcriberInstance.Process(r.Context(), &req)
	if err != nil {
		// Non-2xx makes the workflow retry the page.
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
