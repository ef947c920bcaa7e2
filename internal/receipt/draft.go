package receipt

import (
	"time"

	"github.com/zombor/belegscan/internal/extraction"
	"github.com/zombor/belegscan/internal/scanning"
)

// Proposal is what the reviewer sees before creating an expense: the
// extracted fields plus a suggested category.
type Proposal struct {
	Suggestion extraction.Suggestion `json:"suggestion"`
	CategoryID *int64                `json:"category_id,omitempty"`
	// TaxRate is the extracted rate, else the suggested category's default
	TaxRate *float64 `json:"tax_rate,omitempty"`
}

// Draft is the result of scanning one receipt. Nothing is persisted; the
// reviewer edits the draft and the ledger stores the expense.
type Draft struct {
	ScanID string          `json:"scan_id"`
	Text   string          `json:"text"`
	Engine scanning.Engine `json:"engine"`
	Proposal
	ScannedAt time.Time `json:"scanned_at"`
}
