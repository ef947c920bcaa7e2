package scanning

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Source is an uploaded receipt: raw bytes plus the declared content type
// (image/* or application/pdf).
type Source struct {
	Data        []byte
	ContentType string
}

// Image is a raster image ready for recognition.
type Image struct {
	Data        []byte
	ContentType string
}

// DataURI encodes the image as a base64 data URI.
func (i *Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.ContentType, base64.StdEncoding.EncodeToString(i.Data))
}

// Engine names the recognizer that produced a text.
type Engine string

const (
	EngineLocal  Engine = "local"
	EngineRemote Engine = "remote"
)

// Mode selects which recognizers a scan may use.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// ParseMode accepts auto, offline and online; empty means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeOffline:
		return ModeOffline, nil
	case ModeOnline:
		return ModeOnline, nil
	default:
		return "", fmt.Errorf("unknown recognition mode %q", s)
	}
}

// ProgressFunc receives a fraction in [0,1] and a short status.
type ProgressFunc func(fraction float64, status string)

// Outcome is the recognized text and the engine that produced it.
type Outcome struct {
	Text   string `json:"text"`
	Engine Engine `json:"engine"`
}

// Request is one recognition call.
type Request struct {
	Source Source
	Mode   Mode
	// Credential overrides the configured remote credential when set.
	Credential string
	// UILanguage is "de" or "it"; anything else is treated as "de".
	UILanguage string
	OnProgress ProgressFunc
	// ScanID tags log lines of this request.
	ScanID string
}

// Recognizer turns a raster image into text.
type Recognizer interface {
	// Recognize reads img. lang is the caller's UI language ("de" or "it").
	Recognize(ctx context.Context, img *Image, lang string, credential string, progress ProgressFunc) (string, error)
	// Close releases resources held by the recognizer
	Close() error
}

func report(progress ProgressFunc, fraction float64, status string) {
	if progress != nil {
		progress(fraction, status)
	}
}
