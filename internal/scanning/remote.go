package scanning

import (
	"fmt"
	"log/slog"
)

// RemoteConfig selects and configures the remote recognizer.
type RemoteConfig struct {
	// Type is "ocrspace", "gemini" or "none".
	Type        string
	OCRKey      string
	OCRURL      string
	GeminiKey   string
	GeminiModel string
}

// NewRemote builds the configured remote recognizer and returns the endpoint
// the connectivity probe should dial. The recognizer is nil for "none" and
// for Gemini without a key.
func NewRemote(cfg RemoteConfig) (RemoteRecognizer, string, error) {
	switch cfg.Type {
	case "", "ocrspace":
		if cfg.OCRKey == "" {
			slog.Info("No OCR.space key configured, auto mode will scan locally")
		}
		ocr := NewOCRSpace(cfg.OCRURL, cfg.OCRKey)
		slog.Info("Initializing OCR.space recognizer...", "url", ocr.Endpoint())
		return ocr, ocr.Endpoint(), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			slog.Warn("Gemini API key is not set, remote recognition disabled")
			return nil, "", nil
		}
		slog.Info("Initializing Gemini recognizer...", "model", cfg.GeminiModel)
		gemini, err := NewGemini(cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, "", err
		}
		return gemini, gemini.Endpoint(), nil
	case "none":
		return nil, "", nil
	default:
		return nil, "", fmt.Errorf("invalid remote type %q, valid: ocrspace, gemini or none", cfg.Type)
	}
}
