package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// pdfDPI renders PDF pages at twice the 72 DPI page size; small receipt
// fonts recognize noticeably better at that scale.
const pdfDPI = 2 * 72

// Rasterize turns a receipt source into a single image for recognition. PDFs
// are rendered from their first page only; JPEG, PNG, GIF and WebP images pass
// through untouched; HEIC photos are converted to PNG.
func Rasterize(src Source) (*Image, error) {
	if len(src.Data) == 0 {
		return nil, errors.New("empty receipt")
	}

	mimeType := normalizeMIMEType(src.ContentType, src.Data)
	switch {
	case mimeType == "application/pdf":
		data, err := pdfToImage(src.Data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return &Image{Data: data, ContentType: "image/png"}, nil
	case isHEICFormat(src.Data) || isHEICMimeType(mimeType):
		data, err := heicToPNG(src.Data)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return &Image{Data: data, ContentType: "image/png"}, nil
	case strings.HasPrefix(mimeType, "image/"):
		return &Image{Data: src.Data, ContentType: mimeType}, nil
	default:
		return nil, fmt.Errorf("unsupported receipt format %q. Supported formats: JPEG, PNG, GIF, WebP, HEIC, HEIF, PDF", mimeType)
	}
}

// normalizeMIMEType lower-cases the declared type, drops parameters and sniffs
// the bytes when nothing useful was declared.
func normalizeMIMEType(contentType string, data []byte) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		if isHEICFormat(data) {
			return "image/heic"
		}
		sniffed := http.DetectContentType(data)
		if i := strings.Index(sniffed, ";"); i >= 0 {
			sniffed = sniffed[:i]
		}
		return sniffed
	}
	return mimeType
}

// pdfToImage renders the first page of a PDF as PNG
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, errors.New("PDF has no pages")
	}

	img, err := doc.ImageDPI(0, pdfDPI)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// heicToPNG decodes an iPhone HEIC/HEIF photo, which neither recognizer reads.
func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-related brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
