package extraction

import (
	"regexp"
	"strings"
	"unicode"
)

// LineKind is the classification of a normalized line.
type LineKind int

const (
	KindText LineKind = iota
	KindNoise
	KindPriceOnly
	KindItemCandidate
)

func (k LineKind) String() string {
	switch k {
	case KindNoise:
		return "noise"
	case KindPriceOnly:
		return "price-only"
	case KindItemCandidate:
		return "item-candidate"
	default:
		return "text"
	}
}

// Line is one normalized line of recognized text. Index is its position in the
// receipt, which the item extractor uses for "price on the next line".
type Line struct {
	Index int
	Text  string
	Kind  LineKind
	// Noise is kept apart from Kind so date, amount and tax extraction still
	// see total lines.
	Noise bool
}

var (
	reSeparators    = regexp.MustCompile(`[|¦│]+`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	reTrailingPunct = regexp.MustCompile(`[\s.,:;!?*=_~\-–—]+$`)
	reNumericRun    = regexp.MustCompile(`\d[\d'’.,]*\d|\d`)
	reMoney         = regexp.MustCompile(`^(?:\d{1,3}(?:['’]\d{3})+\.\d{2}|\d{1,3}(?:\.\d{3})+,\d{2}|\d+[.,]\d{2})$`)
)

// NormalizeLines splits raw recognized text into cleaned, non-empty lines.
func NormalizeLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		l = reSeparators.ReplaceAllString(l, " ")
		l = reWhitespace.ReplaceAllString(l, " ")
		l = reTrailingPunct.ReplaceAllString(l, "")
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Classify normalizes raw text and tags every line.
func (t Tables) Classify(raw string) []Line {
	texts := NormalizeLines(raw)
	lines := make([]Line, 0, len(texts))
	for i, text := range texts {
		lines = append(lines, t.classifyLine(i, text))
	}
	return lines
}

func (t Tables) classifyLine(index int, text string) Line {
	l := Line{Index: index, Text: text, Noise: t.Noise.Match(text)}
	switch {
	case l.Noise:
		l.Kind = KindNoise
	case t.isPriceOnly(text):
		l.Kind = KindPriceOnly
	case t.isItemLike(text):
		l.Kind = KindItemCandidate
	default:
		l.Kind = KindText
	}
	return l
}

// isPriceOnly reports whether text is a single money token, optionally with a
// currency label before or after it.
func (t Tables) isPriceOnly(text string) bool {
	var rest []string
	for _, f := range strings.Fields(text) {
		if t.Currency.Match(f) && len(Words(f)) == 1 && !strings.ContainsFunc(f, unicode.IsDigit) {
			continue
		}
		rest = append(rest, f)
	}
	if len(rest) != 1 {
		return false
	}
	token := strings.TrimLeft(rest[0], "-+")
	return reMoney.MatchString(token)
}

// isItemLike applies the item-candidate rules except the noise check.
func (t Tables) isItemLike(text string) bool {
	if t.Noise.Match(text) || t.isPriceOnly(text) {
		return false
	}
	var letters, digits int
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if letters < 2 || digits > letters {
		return false
	}
	return !t.isContact(text)
}

func (t Tables) isContact(text string) bool {
	lower := strings.ToLower(text)
	words := Words(text)
	for _, term := range t.Contact {
		if isPlainWord(term) {
			for _, w := range words {
				if w == term {
					return true
				}
			}
			continue
		}
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func isPlainWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// moneyToken is a monetary-looking number found in a line.
type moneyToken struct {
	Value float64
	Start int
	End   int
}

// moneyTokens returns every monetary-looking number in text, in order. A
// number right after a date is the receipt time ("12.03.2024 14.22").
func moneyTokens(text string) []moneyToken {
	dateEnds := make(map[int]bool)
	for _, re := range []*regexp.Regexp{reDateDMY, reDateYMD} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			dateEnds[loc[1]] = true
		}
	}

	var tokens []moneyToken
	for _, loc := range reNumericRun.FindAllStringIndex(text, -1) {
		run := text[loc[0]:loc[1]]
		if !reMoney.MatchString(run) {
			continue
		}
		if prefix := strings.TrimRight(text[:loc[0]], " "); dateEnds[len(prefix)] && prefix != "" {
			continue
		}
		v, ok := ParseLocaleNumber(run)
		if !ok {
			continue
		}
		tokens = append(tokens, moneyToken{Value: v, Start: loc[0], End: loc[1]})
	}
	return tokens
}
