package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// --- Transcriber Model Prompts ---
const TranscriberSystemPrompt = "You are an OCR and layout-analysis engine. Your task is to transcribe every piece of text visible on a document page, exactly as written, as plain text. You never summarize, translate, or add commentary."
const TranscriberUserPrompt = `You will be provided with a single document page (a PDF page or an image).

Follow these instructions to transcribe it:

Lines: Output one line of text per visual line on the page, top to bottom. Preserve the original wording, numbers, and punctuation exactly.
Tables: Output each table row on its own line, separating cells with " | ". Do not draw borders.
Forms: Output each form field on its own line as "label: value". Leave the value empty if the field is blank.
Images: Ignore images that contain no text.
Output: Return ONLY the transcribed plain text. No markdown, no code fences, no preamble.`

// Per-feature additions appended to the user prompt.
var featurePrompts = map[string]string{
	"TABLES": "This page may contain tables; keep every cell.",
	"FORMS":  "This page may contain forms; keep every label and value pair.",
}

// VertexClient holds the pre-configured generative models used by the layout workers.
type VertexClient struct {
	TranscriberModel *genai.GenerativeModel
	baseClient       *genai.Client
}

// NewVertexClient creates a new client holding all necessary models.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	transcriberModel := baseClient.GenerativeModel(modelName)
	transcriberModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TranscriberSystemPrompt)},
	}
	// Transcription must be deterministic.
	transcriberModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}
	transcriberModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		TranscriberModel: transcriberModel,
		baseClient:       baseClient,
	}, nil
}

// TranscriberPrompt returns the user prompt for the requested features.
func TranscriberPrompt(features []string) string {
	var b strings.Builder
	b.WriteString(TranscriberUserPrompt)
	for _, f := range features {
		if extra, ok := featurePrompts[strings.ToUpper(f)]; ok {
			b.WriteString("\n")
			b.WriteString(extra)
		}
	}
	return b.String()
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
