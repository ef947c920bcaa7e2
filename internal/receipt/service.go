package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/belegscan/internal/category"
	"github.com/zombor/belegscan/internal/extraction"
	"github.com/zombor/belegscan/internal/scanning"
)

// Recognizer turns a receipt source into text
type Recognizer interface {
	Recognize(ctx context.Context, req scanning.Request) (*scanning.Outcome, error)
}

// IDGenerator generates unique IDs for scans
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// ScanRequest is one user-initiated scan
type ScanRequest struct {
	Source     scanning.Source
	Mode       scanning.Mode
	Credential string
	UILanguage string
	OnProgress scanning.ProgressFunc
}

// Service turns receipts into reviewable drafts
type Service struct {
	recognizer  Recognizer
	categories  category.Store
	tables      extraction.Tables
	suggester   *category.Suggester
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default tables, ID generator and time source
func NewService(recognizer Recognizer, categories category.Store, suggester *category.Suggester) *Service {
	return NewServiceWithDeps(recognizer, categories, extraction.DefaultTables(), suggester, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(recognizer Recognizer, categories category.Store, tables extraction.Tables, suggester *category.Suggester, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		recognizer:  recognizer,
		categories:  categories,
		tables:      tables,
		suggester:   suggester,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

type scanResult struct {
	outcome *scanning.Outcome
	err     error
}

// Scan recognizes the receipt and proposes a draft. When ctx ends first, Scan
// returns ctx.Err(); recognition keeps running in the background and its
// progress and result are dropped.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*Draft, error) {
	scanID := s.idGenerator.Generate()
	logger := slog.With("scan_id", scanID)

	var (
		mu     sync.Mutex
		active = true
	)
	progress := func(fraction float64, status string) {
		mu.Lock()
		defer mu.Unlock()
		if active && req.OnProgress != nil {
			req.OnProgress(fraction, status)
		}
	}
	deactivate := func() {
		mu.Lock()
		active = false
		mu.Unlock()
	}

	logger.Info("Scanning receipt",
		"content_type", req.Source.ContentType,
		"file_size", len(req.Source.Data),
		"mode", req.Mode,
	)

	done := make(chan scanResult, 1)
	go func() {
		outcome, err := s.recognizer.Recognize(context.WithoutCancel(ctx), scanning.Request{
			Source:     req.Source,
			Mode:       req.Mode,
			Credential: req.Credential,
			UILanguage: req.UILanguage,
			OnProgress: progress,
			ScanID:     scanID,
		})
		done <- scanResult{outcome: outcome, err: err}
	}()

	var res scanResult
	select {
	case <-ctx.Done():
		deactivate()
		logger.Info("Scan abandoned by caller", "error", ctx.Err())
		return nil, ctx.Err()
	case res = <-done:
		deactivate()
	}

	if res.err != nil {
		return nil, fmt.Errorf("scanning receipt: %w", res.err)
	}

	proposal, err := s.Propose(res.outcome.Text)
	if err != nil {
		return nil, err
	}

	return &Draft{
		ScanID:    scanID,
		Text:      res.outcome.Text,
		Engine:    res.outcome.Engine,
		Proposal:  *proposal,
		ScannedAt: s.timeSource.Now(),
	}, nil
}

// Propose extracts fields from already recognized text and suggests a
// category among the active ones.
func (s *Service) Propose(text string) (*Proposal, error) {
	suggestion := s.tables.Suggest(text)
	proposal := &Proposal{
		Suggestion: suggestion,
		TaxRate:    suggestion.TaxRate,
	}

	categories, err := s.categories.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	match := suggestion.Text()
	if match == "" {
		match = text
	}
	if c := s.suggester.Suggest(match, categories); c != nil {
		id := c.ID
		proposal.CategoryID = &id
		if proposal.TaxRate == nil {
			rate := c.DefaultTaxRate
			proposal.TaxRate = &rate
		}
	}

	return proposal, nil
}

// ListCategories returns the active categories
func (s *Service) ListCategories() ([]*category.Category, error) {
	categories, err := s.categories.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return category.Active(categories), nil
}
