package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reDateDMY = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})\b`)
	reDateYMD = regexp.MustCompile(`\b(\d{4})[./-](\d{1,2})[./-](\d{1,2})\b`)
	rePercent = regexp.MustCompile(`(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)
)

// ExtractDate returns the first valid date found scanning lines in order.
// Year-month-day is tried before day-month-year on each line.
func ExtractDate(lines []Line) (time.Time, bool) {
	for _, l := range lines {
		if m := reDateYMD.FindStringSubmatch(l.Text); m != nil {
			if d, ok := buildDate(m[1], m[2], m[3]); ok {
				return d, true
			}
		}
		if m := reDateDMY.FindStringSubmatch(l.Text); m != nil {
			if d, ok := buildDate(m[3], m[2], m[1]); ok {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// buildDate validates a year/month/day triple. Two-digit years are windowed:
// 70 and above are 19xx, below 70 are 20xx.
func buildDate(ys, ms, ds string) (time.Time, bool) {
	y, err := strconv.Atoi(ys)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(ds)
	if err != nil {
		return time.Time{}, false
	}
	if y == 0 || m == 0 || d == 0 {
		return time.Time{}, false
	}
	if len(ys) == 2 {
		if y >= 70 {
			y += 1900
		} else {
			y += 2000
		}
	}
	if m > 12 {
		return time.Time{}, false
	}
	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (32.01 -> 01.02); reject those.
	if date.Day() != d || int(date.Month()) != m {
		return time.Time{}, false
	}
	return date, true
}

// amountCandidate is a money token ranked by the line it was found on.
type amountCandidate struct {
	value    float64
	total    bool
	currency bool
}

// beats orders candidates by tier: a total label first, then a currency label
// on that line, then value. A labelled total wins regardless of magnitude.
func (c amountCandidate) beats(o amountCandidate) bool {
	if c.total != o.total {
		return c.total
	}
	if c.currency != o.currency {
		return c.currency
	}
	return c.value > o.value
}

// ExtractAmount ranks every money token and returns the best one. Ties keep
// the first token encountered.
func (t Tables) ExtractAmount(lines []Line) (float64, bool) {
	var (
		best  amountCandidate
		found bool
	)
	for _, l := range lines {
		currency := l.Noise && t.Currency.Match(l.Text)
		for _, tok := range moneyTokens(l.Text) {
			if tok.Value <= 0 {
				continue
			}
			c := amountCandidate{value: tok.Value, total: l.Noise, currency: currency}
			if !found || c.beats(best) {
				best, found = c, true
			}
		}
	}
	return best.value, found
}

// ExtractTaxRate returns the trailing percentage of the first tax line that
// carries one.
func (t Tables) ExtractTaxRate(lines []Line) (float64, bool) {
	for _, l := range lines {
		if !t.Tax.Match(l.Text) {
			continue
		}
		matches := rePercent.FindAllStringSubmatch(l.Text, -1)
		if len(matches) == 0 {
			continue
		}
		rate, ok := ParseLocaleNumber(matches[len(matches)-1][1])
		if !ok || rate < 0 || rate >= 100 {
			continue
		}
		return rate, true
	}
	return 0, false
}

// ExtractItems collects up to MaxItems purchased items. A line with a price
// is kept without its price; a candidate followed by a price-only line is one
// item. Without any such match the first MaxFallbackItems candidates are
// returned as they are.
func (t Tables) ExtractItems(lines []Line) []string {
	var items []string
	for i := 0; i < len(lines) && len(items) < t.MaxItems; i++ {
		l := lines[i]
		if l.Noise || l.Kind == KindPriceOnly {
			continue
		}
		if tokens := moneyTokens(l.Text); len(tokens) > 0 {
			name := t.stripPrice(l.Text, tokens[len(tokens)-1])
			if t.isItemLike(name) && len([]rune(name)) >= t.MinItemLength {
				items = append(items, name)
			}
			continue
		}
		if l.Kind == KindItemCandidate && i+1 < len(lines) && lines[i+1].Kind == KindPriceOnly {
			items = append(items, l.Text)
			i++
		}
	}
	if len(items) > 0 {
		return items
	}

	for _, l := range lines {
		if len(items) >= t.MaxFallbackItems {
			break
		}
		if l.Kind == KindItemCandidate {
			items = append(items, l.Text)
		}
	}
	return items
}

// stripPrice cuts text before its price token and drops a currency label left
// dangling at the end.
func (t Tables) stripPrice(text string, price moneyToken) string {
	fields := strings.Fields(text[:price.Start])
	for len(fields) > 0 {
		last := fields[len(fields)-1]
		if t.Currency.Match(last) && len(Words(last)) == 1 {
			fields = fields[:len(fields)-1]
			continue
		}
		break
	}
	name := strings.Join(fields, " ")
	return reTrailingPunct.ReplaceAllString(name, "")
}

// ExtractDescription returns the first item-candidate line, falling back to
// the first extracted item. A candidate above every priced line is the shop
// header; when items were found the first item is used instead.
func ExtractDescription(lines []Line, items []string) (string, bool) {
	priced := false
	for _, l := range lines {
		if len(moneyTokens(l.Text)) > 0 {
			priced = true
		}
		if l.Kind != KindItemCandidate || l.Noise {
			continue
		}
		if !priced && len(items) > 0 {
			return items[0], true
		}
		return l.Text, true
	}
	if len(items) > 0 {
		return items[0], true
	}
	return "", false
}
