package services

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

func TestPageMIMEType(t *testing.T) {
	tests := map[string]string{
		"gs://pages/job/00001.pdf":  "application/pdf",
		"gs://pages/job/00001.PNG":  "image/png",
		"gs://pages/job/00001.jpg":  "image/jpeg",
		"gs://pages/job/00001.jpeg": "image/jpeg",
	}
	for uri, want := range tests {
		got, err := pageMIMEType(uri)
		require.NoError(t, err, uri)
		assert.Equal(t, want, got, uri)
	}

	_, err := pageMIMEType("gs://pages/job/00001.docx")
	assert.Error(t, err)
}

func TestResponseTexts(t *testing.T) {
	assert.Nil(t, responseTexts(nil))
	assert.Nil(t, responseTexts(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("line one\n"), genai.Blob{MIMEType: "image/png"}, genai.Text("line two")}},
	}}}
	assert.Equal(t, []string{"line one\n", "line two"}, responseTexts(resp))
}

func TestExtractTranscript(t *testing.T) {
	assert.Equal(t, "a\nb", extractTranscript([]string{"```text\na\n", "b\n```"}))
	assert.Equal(t, "plain", extractTranscript([]string{"  plain  "}))
	assert.Equal(t, "x", extractTranscript([]string{"```plaintext\nx```"}))
	assert.Equal(t, "", extractTranscript(nil))
}

func TestCheckRefusal(t *testing.T) {
	assert.NoError(t, checkRefusal("Invoice 42\nTotal: 10"))
	assert.Error(t, checkRefusal("I am unable to read this page."))
	assert.Error(t, checkRefusal("As a large language model, I cannot provide that."))
}

func TestTranscriberResultsBucket(t *testing.T) {
	f := &PageTranscriberFunction{config: PageTranscriberConfig{ResultsBucket: "env-results"}}

	got, err := f.resultsBucket(&models.PageTranscriberRequest{ResultsBucket: "workflow-results"})
	require.NoError(t, err)
	assert.Equal(t, "workflow-results", got)

	got, err = f.resultsBucket(&models.PageTranscriberRequest{})
	require.NoError(t, err)
	assert.Equal(t, "env-results", got)

	_, err = (&PageTranscriberFunction{}).resultsBucket(&models.PageTranscriberRequest{})
	assert.Error(t, err)
}

func TestLoadTranscriberConfig(t *testing.T) {
	t.Setenv("PROJECT_ID", "proj")
	t.Setenv("LAYOUT_RESULTS_BUCKET", "")
	cfg, err := loadTranscriberConfig()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.ResultsBucket)
	assert.Equal(t, "us-central1", cfg.VertexAIRegion)

	t.Setenv("PROJECT_ID", "")
	_, err = loadTranscriberConfig()
	assert.Error(t, err)
}
