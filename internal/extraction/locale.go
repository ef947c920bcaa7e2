package extraction

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// thousandsStripper removes whitespace and apostrophe-style thousand separators
// ("1'234.50", "1’234.50", "1 234,50").
var thousandsStripper = strings.NewReplacer(
	" ", "",
	"\t", "",
	"\u00a0", "",
	"\u202f", "",
	"'", "",
	"’", "",
	"`", "",
	"´", "",
)

// ParseLocaleNumber converts a Swiss/German/English formatted decimal string
// into a float. The second return value is false when the string holds no
// finite number.
func ParseLocaleNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = thousandsStripper.Replace(s)
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToNumber accepts nil, numeric and string values. Numbers pass through when
// finite, strings go through ParseLocaleNumber. Range limits are left to the
// caller.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return ParseLocaleNumber(n)
	case *string:
		if n == nil {
			return 0, false
		}
		return ParseLocaleNumber(*n)
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
