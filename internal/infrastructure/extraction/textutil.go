package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// OCR drops thousands separators as often as it keeps them, so both
	// $1,500.00 and $1500.00 must match whole.
	reMoney   = regexp.MustCompile(`\$?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}`)
	reOrderID = regexp.MustCompile(`\d{6,9}[A-Z]{0,2}`)
	reDate    = regexp.MustCompile(`\b(?:0?[1-9]|1[0-2])/(?:0?[1-9]|[12]\d|3[01])/\d{2,4}\b`)
	rePhone   = regexp.MustCompile(`\(?\d{3}\)?[ .\-]?\d{3}[ .\-]?\d{4}`)
)

// orderIDs returns all order-id-shaped tokens in the text: 6-9 digits with an
// optional 1-2 letter suffix, not embedded in a dollar amount or a longer
// number.
func orderIDs(text string) []string {
	var out []string
	for _, loc := range reOrderID.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			prev := text[loc[0]-1]
			if prev == '$' || prev == '.' || prev == ',' || isDigit(prev) || isUpper(prev) {
				continue
			}
		}
		if loc[1] < len(text) {
			next := text[loc[1]]
			if next == '.' || next == ',' || isDigit(next) || isUpper(next) {
				continue
			}
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

func firstOrderID(text string) string {
	ids := orderIDs(text)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// moneyValues returns every dollar amount on the text, stripped of the dollar
// sign but keeping cents.
func moneyValues(text string) []string {
	matches := reMoney.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimPrefix(m, "$"))
	}
	return out
}

func largestMoney(values []string) string {
	best := ""
	bestCents := int64(-1)
	for _, v := range values {
		cents, ok := moneyCents(v)
		if !ok {
			continue
		}
		if cents > bestCents {
			bestCents = cents
			best = v
		}
	}
	return best
}

func moneyCents(v string) (int64, bool) {
	clean := strings.ReplaceAll(v, ",", "")
	parts := strings.SplitN(clean, ".", 2)
	if len(parts) != 2 {
		return 0, false
	}
	dollars, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	cents, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return dollars*100 + cents, true
}

// captureAfter returns the first submatch of re in text, trimmed.
func captureAfter(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// correctStatCode undoes the two digit-for-letter confusions Tesseract makes
// on stat codes: 0 for O and 1 for I.
func correctStatCode(code string) string {
	code = strings.ReplaceAll(code, "0", "O")
	return strings.ReplaceAll(code, "1", "I")
}

func lines(text string) []string {
	return strings.Split(text, "\n")
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

// slotConfidence is the fraction of field slots that were filled.
func slotConfidence(filled, total int) float64 {
	if total <= 0 {
		return 0
	}
	c := float64(filled) / float64(total)
	if c > 1 {
		return 1
	}
	return c
}
