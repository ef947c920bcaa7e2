package category

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed hints.yaml
var defaultHintsYAML []byte

// Hint pairs category-name fragments with vendor and product keywords.
type Hint struct {
	MatchTerms   []string `yaml:"match_terms"`
	KeywordTerms []string `yaml:"keywords"`
}

// DefaultHints returns the built-in hint table.
func DefaultHints() ([]Hint, error) {
	return parseHints(defaultHintsYAML)
}

// LoadHints reads a hint table from a YAML file. An empty path yields the
// built-in table.
func LoadHints(path string) ([]Hint, error) {
	if path == "" {
		return DefaultHints()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hints file: %w", err)
	}
	return parseHints(data)
}

func parseHints(data []byte) ([]Hint, error) {
	var hints []Hint
	if err := yaml.Unmarshal(data, &hints); err != nil {
		return nil, fmt.Errorf("parsing hints: %w", err)
	}
	for i := range hints {
		hints[i].MatchTerms = normalizeAll(hints[i].MatchTerms)
		hints[i].KeywordTerms = normalizeAll(hints[i].KeywordTerms)
	}
	return hints, nil
}

func normalizeAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := Normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
