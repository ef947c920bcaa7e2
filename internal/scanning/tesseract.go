package scanning

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguages is the trilingual bundle of the local engine.
var DefaultLanguages = []string{"deu", "ita", "eng"}

// minOCRHeight is the height below which images are upscaled before OCR.
const minOCRHeight = 800

// Tesseract implements the Recognizer interface with the bundled Tesseract
// engine. It works offline.
type Tesseract struct {
	tessdataPrefix string
	languages      []string
}

// NewTesseract creates a local recognizer. An empty tessdataPrefix uses the
// engine's compiled-in data path.
func NewTesseract(tessdataPrefix string) *Tesseract {
	return &Tesseract{
		tessdataPrefix: tessdataPrefix,
		languages:      DefaultLanguages,
	}
}

// Recognize runs Tesseract over img. The language set is fixed, lang and
// credential are ignored.
func (t *Tesseract) Recognize(ctx context.Context, img *Image, _ string, _ string, progress ProgressFunc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	report(progress, 0, "initializing tesseract")
	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return "", fmt.Errorf("setting tessdata prefix: %w", err)
		}
	}

	report(progress, 0.2, "loading language traineddata")
	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("setting languages: %w", err)
	}

	report(progress, 0.4, "preprocessing image")
	if err := client.SetImageFromBytes(preprocess(img.Data)); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	report(progress, 0.6, "recognizing text")
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}

	report(progress, 1, "recognizing text")
	return text, nil
}

// preprocess converts to grayscale and upscales short images. The original
// bytes are returned when the image cannot be decoded.
func preprocess(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		slog.Debug("Skipping OCR preprocessing", "error", err)
		return data
	}

	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < minOCRHeight {
		gray = imaging.Resize(gray, 0, 1200, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		slog.Debug("Skipping OCR preprocessing", "error", err)
		return data
	}
	return buf.Bytes()
}

// Close is a no-op; every call owns and releases its own engine client
func (t *Tesseract) Close() error {
	return nil
}
