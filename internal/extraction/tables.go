package extraction

import (
	"strings"
	"unicode"
)

// KeywordSet matches words of a line against a fixed vocabulary. Short terms
// must match a whole word; terms of MinPrefixLen runes or more also match as a
// word prefix ("total" matches "totalbetrag").
type KeywordSet struct {
	Terms        []string
	MinPrefixLen int
}

// Match reports whether any word of line hits the set.
func (k KeywordSet) Match(line string) bool {
	for _, word := range Words(line) {
		for _, term := range k.Terms {
			if word == term {
				return true
			}
			if k.MinPrefixLen > 0 && len([]rune(term)) >= k.MinPrefixLen && strings.HasPrefix(word, term) {
				return true
			}
		}
	}
	return false
}

// Words lower-cases line and splits it on anything that is not a letter.
func Words(line string) []string {
	return strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// Tables is the static vocabulary the classifier and the field extractors
// work from. It is built once and only read afterwards.
type Tables struct {
	// Noise holds total and tax labels. Lines hitting it never become
	// descriptions or items.
	Noise KeywordSet
	// Tax restricts tax-rate extraction to lines that name a VAT.
	Tax KeywordSet
	// Currency marks amounts that carry a currency label.
	Currency KeywordSet
	// Contact flags phone, fax, web and mail lines.
	Contact []string

	MaxItems         int
	MaxFallbackItems int
	MinItemLength    int
}

// DefaultTables returns the German/Italian/English vocabulary for Swiss
// receipts.
func DefaultTables() Tables {
	return Tables{
		Noise: KeywordSet{
			Terms: []string{
				"total", "totale", "summe", "zwischensumme", "gesamt", "gesamtbetrag",
				"betrag", "subtotal", "saldo", "rückgeld", "rueckgeld", "zahlung",
				"mwst", "ust", "vat", "iva", "tva", "mehrwertsteuer", "steuer", "imposta",
			},
			MinPrefixLen: 5,
		},
		Tax: KeywordSet{
			Terms:        []string{"mwst", "ust", "vat", "iva", "tva", "mehrwertsteuer"},
			MinPrefixLen: 4,
		},
		Currency: KeywordSet{
			Terms: []string{"chf", "fr", "sfr"},
		},
		Contact: []string{
			"tel", "telefon", "fax", "phone", "www", "http", "@", ".ch", ".com", ".it", ".de",
		},
		MaxItems:         6,
		MaxFallbackItems: 4,
		MinItemLength:    3,
	}
}
