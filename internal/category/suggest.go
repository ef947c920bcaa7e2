package category

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinScore is the confidence floor below which no category is suggested.
const MinScore = 2.0

// hintBonus is added once per hint whose keywords appear in the text.
const hintBonus = 3.0

var diacritics = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"à", "a", "â", "a", "é", "e", "è", "e", "ê", "e", "ë", "e",
	"ì", "i", "î", "i", "ï", "i", "ò", "o", "ô", "o", "ù", "u", "û", "u", "ç", "c",
)

// Normalize lower-cases s and folds diacritics to their base-letter
// spelling ("Gebühren" becomes "gebuehren").
func Normalize(s string) string {
	return diacritics.Replace(cases.Lower(language.German).String(strings.TrimSpace(s)))
}

// Suggester scores categories against receipt text.
type Suggester struct {
	hints []Hint
}

// NewSuggester creates a Suggester over a normalized hint table, as returned
// by DefaultHints or LoadHints.
func NewSuggester(hints []Hint) *Suggester {
	return &Suggester{hints: hints}
}

// Suggest returns the best active category for text, or nil when none reaches
// MinScore. Equal scores go to the category whose normalized name sorts
// first, then to the lower id.
func (s *Suggester) Suggest(text string, categories []*Category) *Category {
	normText := Normalize(text)
	if normText == "" {
		return nil
	}

	candidates := Active(categories)
	sort.SliceStable(candidates, func(i, j int) bool {
		ni, nj := Normalize(candidates[i].Name), Normalize(candidates[j].Name)
		if ni != nj {
			return ni < nj
		}
		return candidates[i].ID < candidates[j].ID
	})

	var (
		best      *Category
		bestScore float64
	)
	for _, c := range candidates {
		score := s.Score(normText, c)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if best == nil || bestScore < MinScore {
		return nil
	}
	return best
}

// Score rates one category against already normalized text.
func (s *Suggester) Score(normText string, c *Category) float64 {
	var score float64
	for _, token := range tokens(Normalize(c.Name + " " + c.Description)) {
		if strings.Contains(normText, token) {
			score += math.Min(4, 1+float64(len([]rune(token)))/5)
		}
	}

	normName := Normalize(c.Name)
	for _, h := range s.hints {
		if !containsAny(normName, h.MatchTerms) {
			continue
		}
		if containsAny(normText, h.KeywordTerms) {
			score += hintBonus
		}
	}
	return score
}

// defaultSuggester parses the built-in hints on first use only.
var defaultSuggester = sync.OnceValues(func() (*Suggester, error) {
	hints, err := DefaultHints()
	if err != nil {
		return nil, err
	}
	return NewSuggester(hints), nil
})

// SuggestCategory returns the id of the best category for text using the
// built-in hints.
func SuggestCategory(text string, categories []*Category) (int64, bool) {
	s, err := defaultSuggester()
	if err != nil {
		return 0, false
	}
	c := s.Suggest(text, categories)
	if c == nil {
		return 0, false
	}
	return c.ID, true
}

// tokens splits s into distinct words longer than two runes.
func tokens(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) <= 2 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}
