package scanning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEndpoint is the host the connectivity probe dials for Gemini.
const GeminiEndpoint = "https://generativelanguage.googleapis.com"

// transcribePrompt asks for the receipt text only; all field extraction
// happens locally on the returned text.
const transcribePrompt = `Transcribe all text printed on this receipt exactly as it appears, line by line, top to bottom.
Keep numbers, prices, dates and percent signs exactly as printed. Put each printed line on its own output line and keep item names and their prices on the same line.
Do not translate, summarize, explain or add anything. Do not use markdown.`

var geminiLanguages = map[string]string{
	"de": "German",
	"it": "Italian",
}

// Gemini implements the Recognizer interface using Google Gemini as a
// transcription service
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini recognizer
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// Endpoint returns the API host.
func (g *Gemini) Endpoint() string {
	return GeminiEndpoint
}

// HasCredential is always true; NewGemini refuses an empty key.
func (g *Gemini) HasCredential() bool {
	return true
}

// Recognize transcribes the receipt. The per-call credential is ignored since
// the client is bound to its key.
func (g *Gemini) Recognize(ctx context.Context, img *Image, lang string, _ string, progress ProgressFunc) (string, error) {
	format := strings.TrimPrefix(img.ContentType, "image/")
	if format == "" {
		return "", errors.New("image content type is required")
	}

	prompt := transcribePrompt
	if name, ok := geminiLanguages[lang]; ok {
		prompt += "\nThe receipt is most likely in " + name + "."
	}

	// genai.ImageData expects just the format suffix (e.g., "png")
	parts := []genai.Part{
		genai.ImageData(format, img.Data),
		genai.Text(prompt),
	}

	report(progress, 0, "uploading receipt")
	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	report(progress, 1, "recognized")
	return stripCodeFence(text.String()), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// stripCodeFence removes a markdown code block the model may wrap text in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
