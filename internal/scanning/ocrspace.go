package scanning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultOCRSpaceURL is the public endpoint of the OCR.space parse API.
const DefaultOCRSpaceURL = "https://api.ocr.space/parse/image"

// LanguageTable maps the caller's UI language to a recognition language code.
type LanguageTable struct {
	Codes   map[string]string
	Default string
}

// Code returns the code for ui, or Default.
func (t LanguageTable) Code(ui string) string {
	if code, ok := t.Codes[strings.ToLower(strings.TrimSpace(ui))]; ok {
		return code
	}
	return t.Default
}

// DefaultRemoteLanguages recognizes German unless the UI is Italian.
func DefaultRemoteLanguages() LanguageTable {
	return LanguageTable{
		Codes:   map[string]string{"de": "ger", "it": "ita"},
		Default: "ger",
	}
}

// OCRSpace implements the Recognizer interface against an OCR.space
// compatible endpoint.
type OCRSpace struct {
	endpoint  string
	apiKey    string
	engine    string
	languages LanguageTable
	client    *http.Client
}

// NewOCRSpace creates a remote recognizer. An empty endpoint uses
// DefaultOCRSpaceURL.
func NewOCRSpace(endpoint string, apiKey string) *OCRSpace {
	if endpoint == "" {
		endpoint = DefaultOCRSpaceURL
	}
	return &OCRSpace{
		endpoint:  endpoint,
		apiKey:    apiKey,
		engine:    "2",
		languages: DefaultRemoteLanguages(),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Endpoint returns the URL requests are sent to.
func (o *OCRSpace) Endpoint() string {
	return o.endpoint
}

// HasCredential reports whether an API key is configured.
func (o *OCRSpace) HasCredential() bool {
	return o.apiKey != ""
}

// ocrSpaceResponse is the subset of the parse API response we read
type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool         `json:"IsErroredOnProcessing"`
	ErrorMessage          errorMessage `json:"ErrorMessage"`
}

// errorMessage is sent either as a string or as a list of strings
type errorMessage []string

func (m *errorMessage) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*m = errorMessage{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*m = list
	return nil
}

func (m errorMessage) String() string {
	if len(m) == 0 {
		return "unknown error"
	}
	return strings.Join(m, "; ")
}

// Recognize posts the image to the parse API
func (o *OCRSpace) Recognize(ctx context.Context, img *Image, lang string, credential string, progress ProgressFunc) (string, error) {
	apiKey := o.apiKey
	if credential != "" {
		apiKey = credential
	}
	if apiKey == "" {
		return "", errors.New("ocr api key is required")
	}

	form := url.Values{}
	form.Set("apikey", apiKey)
	form.Set("language", o.languages.Code(lang))
	form.Set("isOverlayRequired", "false")
	form.Set("OCREngine", o.engine)
	form.Set("base64Image", img.DataURI())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	report(progress, 0, "uploading receipt")
	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ocr API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("ocr API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("ocr processing failed: %s", parsed.ErrorMessage)
	}

	report(progress, 1, "recognized")
	if len(parsed.ParsedResults) == 0 {
		return "", nil
	}
	return parsed.ParsedResults[0].ParsedText, nil
}

// Close is a no-op for the HTTP client
func (o *OCRSpace) Close() error {
	return nil
}
