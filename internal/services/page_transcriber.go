package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"cloud.google.com/go/vertexai/genai"

	"github.com/Lllllllleong/documentingestion/internal/gcp"
	"github.com/Lllllllleong/documentingestion/internal/models"
)

// PageTranscriberConfig holds all configuration for the page-transcriber service.
type PageTranscriberConfig struct {
	ProjectID      string
	VertexAIRegion string
	VertexModel    string
	ResultsBucket  string
}

// PageTranscriberFunction holds the dependencies for the transcription logic.
type PageTranscriberFunction struct {
	storageClient *storage.Client
	vertexClient  *gcp.VertexClient
	config        PageTranscriberConfig
}

// loadTranscriberConfig loads and validates all necessary environment variables for this service.
func loadTranscriberConfig() (*PageTranscriberConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return &PageTranscriberConfig{
		ProjectID:      projectID,
		VertexAIRegion: gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		VertexModel:    gcp.GetEnv("VERTEX_MODEL", "gemini-1.5-pro"),
		ResultsBucket:  gcp.GetEnv("LAYOUT_RESULTS_BUCKET", ""),
	}, nil
}

// NewPageTranscriber creates a new PageTranscriberFunction instance.
func NewPageTranscriber(ctx context.Context) (*PageTranscriberFunction, error) {
	config, err := loadTranscriberConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, config.VertexModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	return &PageTranscriberFunction{
		storageClient: storageClient,
		vertexClient:  vertexClient,
		config:        *config,
	}, nil
}

// Process transcribes one page and saves the text under the job prefix.
func (f *PageTranscriberFunction) Process(ctx context.Context, req *models.PageTranscriberRequest) (*models.PageTranscriberResponse, error) {
	logCtx := slog.With("jobPrefix", req.JobPrefix, "pageNumber", req.PageNumber, "gcsUri", req.GCSUri)
	logCtx.Info("Starting page transcription.")

	mimeType, err := pageMIMEType(req.GCSUri)
	if err != nil {
		logCtx.Error("Unsupported page type", "error", err)
		return nil, err
	}
	resultsBucket, err := f.resultsBucket(req)
	if err != nil {
		logCtx.Error("No results bucket for transcript", "error", err)
		return nil, err
	}

	model := f.vertexClient.TranscriberModel
	prompt := genai.Text(gcp.TranscriberPrompt(req.Features))
	filePart := genai.FileData{
		MIMEType: mimeType,
		FileURI:  req.GCSUri,
	}

	geminiResp, err := model.GenerateContent(ctx, filePart, prompt)
	if err != nil {
		logCtx.Error("Call to Vertex AI for transcription failed", "error", err)
		return nil, fmt.Errorf("failed to generate content from gemini: %w", err)
	}

	text := extractTranscript(responseTexts(geminiResp))
	if err := checkRefusal(text); err != nil {
		logCtx.Error("LLM refusal detected", "error", err, "response", text)
		return nil, fmt.Errorf("page %d: %w", req.PageNumber, err)
	}
	if text == "" {
		logCtx.Warn("No text found on page. Saving empty transcript.")
	}

	objectName := PageObjectName(req.JobPrefix, req.PageNumber, ".txt")
	bucketHandle := f.storageClient.Bucket(resultsBucket)
	if err := gcp.SaveToGCSAtomically(ctx, bucketHandle, objectName, text); err != nil {
		logCtx.Error("Failed to save transcript to GCS", "error", err, "object", objectName)
		return nil, err
	}

	outputGCSUri := fmt.Sprintf("gs://%s/%s", resultsBucket, objectName)
	lineCount := len(gcp.LineBlocks(text))
	logCtx.Info("Transcription complete.", "outputGcsUri", outputGCSUri, "lineCount", lineCount)
	return &models.PageTranscriberResponse{
		Status:       "success",
		OutputGCSUri: outputGCSUri,
		LineCount:    lineCount,
	}, nil
}

// resultsBucket prefers the bucket named by the workflow, so the transcript
// lands where the ingestion side will list it.
func (f *PageTranscriberFunction) resultsBucket(req *models.PageTranscriberRequest) (string, error) {
	if req.ResultsBucket != "" {
		return req.ResultsBucket, nil
	}
	if f.config.ResultsBucket != "" {
		return f.config.ResultsBucket, nil
	}
	return "", fmt.Errorf("request names no resultsBucket and LAYOUT_RESULTS_BUCKET is not set")
}

var pageMIMETypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// pageMIMEType maps a page URI to the MIME type Gemini expects.
func pageMIMEType(uri string) (string, error) {
	ext := strings.ToLower(path.Ext(uri))
	if mt, ok := pageMIMETypes[ext]; ok {
		return mt, nil
	}
	return "", fmt.Errorf("no page MIME type for %q", ext)
}

// responseTexts collects the text parts of the first candidate.
func responseTexts(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var texts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			texts = append(texts, string(txt))
		}
	}
	return texts
}

// extractTranscript joins text parts and strips any code fence the model added.
func extractTranscript(parts []string) string {
	contentStr := strings.TrimSpace(strings.Join(parts, ""))
	contentStr = strings.TrimPrefix(contentStr, "```text")
	contentStr = strings.TrimPrefix(contentStr, "```plaintext")
	contentStr = strings.TrimPrefix(contentStr, "```")
	contentStr = strings.TrimSuffix(contentStr, "```")
	return strings.TrimSpace(contentStr)
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// checkRefusal fails when the model declined instead of transcribing.
func checkRefusal(text string) error {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Errorf("gemini response indicates refusal")
		}
	}
	return nil
}
