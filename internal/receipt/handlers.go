package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/belegscan/internal/scanning"
)

// maxFileSize caps a receipt upload
const maxFileSize = int64(12 << 20)

// maxFormSize leaves room for the other form fields and multipart framing
const maxFormSize = maxFileSize + int64(1<<20)

// maxFormMemory is kept in memory while parsing, the rest spills to disk
const maxFormMemory = int64(8 << 20)

// maxSuggestBody bounds the text sent to /api/suggest
const maxSuggestBody = int64(1 << 20)

const fileTooLarge = "File is too large. Maximum size is 12MB. Please compress or resize your image."

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes {"error": message} with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON encodes v with status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleListCategories returns the active categories
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.service.ListCategories()
	if err != nil {
		slog.Error("Error listing categories", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

// handleSuggest proposes fields and a category for already recognized text
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSuggestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	proposal, err := s.service.Propose(req.Text)
	if err != nil {
		slog.Error("Error proposing draft", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}

// handleScan scans an uploaded receipt. With Accept: text/event-stream the
// response streams progress events followed by done or error.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			errorMsg = fileTooLarge
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFileSize {
		jsonError(w, fileTooLarge, http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	modeValue := r.FormValue("mode")
	if modeValue == "" {
		modeValue = string(s.defaults.Mode)
	}
	mode, err := scanning.ParseMode(modeValue)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	lang := strings.ToLower(strings.TrimSpace(r.FormValue("lang")))
	if lang == "" {
		lang = s.defaults.UILanguage
	}

	req := ScanRequest{
		Source: scanning.Source{
			Data:        data,
			ContentType: detectContentType(header.Header.Get("Content-Type"), header.Filename),
		},
		Mode:       mode,
		Credential: r.FormValue("credential"),
		UILanguage: lang,
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.streamScan(w, r, req)
		return
	}

	draft, err := s.service.Scan(r.Context(), req)
	if err != nil {
		if isCallerGone(err) {
			return
		}
		slog.Error("Error scanning receipt", "filename", header.Filename, "error", err)
		message, code := scanFailure(err)
		jsonError(w, message, code)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, draft)
}

// streamScan runs the scan and reports it as server-sent events
func (s *Server) streamScan(w http.ResponseWriter, r *http.Request, req ScanRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(event string, v any) {
		if err := writeEvent(w, event, v); err != nil {
			slog.Debug("Error writing event", "event", event, "error", err)
			return
		}
		flusher.Flush()
	}

	req.OnProgress = func(fraction float64, status string) {
		send("progress", map[string]any{
			"fraction": fraction,
			"status":   status,
		})
	}

	draft, err := s.service.Scan(r.Context(), req)
	if err != nil {
		if isCallerGone(err) {
			return
		}
		slog.Error("Error scanning receipt", "error", err)
		message, _ := scanFailure(err)
		send("error", map[string]string{"error": message})
		return
	}

	send("done", draft)
}

// writeEvent writes one server-sent event with a JSON payload
func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// scanFailure maps a scan error to the single message shown to the user
func scanFailure(err error) (string, int) {
	var scanErr *scanning.Error
	if errors.As(err, &scanErr) {
		return scanErr.UserMessage(), http.StatusUnprocessableEntity
	}
	return "Scan failed. Please try again.", http.StatusInternalServerError
}

func isCallerGone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// detectContentType falls back to the file extension when the part has no
// content type
func detectContentType(contentType string, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
