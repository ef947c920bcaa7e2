// Package extraction recovers a draft expense (date, total, tax rate,
// description and items) from noisy recognized receipt text.
//
// Every extractor is a pure function over the same classified line sequence;
// a field that cannot be found is left nil, it is never defaulted.
package extraction

import "strings"

// DateLayout is the ISO date format of Suggestion.Date.
const DateLayout = "2006-01-02"

// Suggestion is the best-effort draft proposed to the reviewer.
type Suggestion struct {
	Date        *string  `json:"date,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	TaxRate     *float64 `json:"tax_rate,omitempty"`
	Description *string  `json:"description,omitempty"`
	Note        *string  `json:"note,omitempty"`
}

// Empty reports whether no field was suggested.
func (s Suggestion) Empty() bool {
	return s.Date == nil && s.Amount == nil && s.TaxRate == nil && s.Description == nil && s.Note == nil
}

// Text joins the free-text fields, which is what category matching reads.
func (s Suggestion) Text() string {
	var parts []string
	if s.Description != nil {
		parts = append(parts, *s.Description)
	}
	if s.Note != nil {
		parts = append(parts, *s.Note)
	}
	return strings.Join(parts, "\n")
}

// Suggest runs all extractors over text.
func (t Tables) Suggest(text string) Suggestion {
	lines := t.Classify(text)

	var s Suggestion
	if d, ok := ExtractDate(lines); ok {
		s.Date = ptr(d.Format(DateLayout))
	}
	if a, ok := t.ExtractAmount(lines); ok {
		s.Amount = ptr(a)
	}
	if r, ok := t.ExtractTaxRate(lines); ok {
		s.TaxRate = ptr(r)
	}
	items := t.ExtractItems(lines)
	if d, ok := ExtractDescription(lines, items); ok {
		s.Description = ptr(d)
	}
	if len(items) > 0 {
		s.Note = ptr(strings.Join(items, ", "))
	}
	return s
}

// SuggestFromText runs Suggest with DefaultTables.
func SuggestFromText(text string) Suggestion {
	return DefaultTables().Suggest(text)
}

func ptr[T any](v T) *T {
	return &v
}
