package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

// Cash-drawer report pages list per-drawer totals and close with a GRAND
// TOTALS line. On that line the largest amount is the grand total; when
// three or more amounts are present the first is the refund total; a
// trailing integer is the transaction count.

const maxTransCount = 999

var (
	reCDRTitle      = regexp.MustCompile(`CASH\s+DRAWER\s+REPORT|DRAWER\s+RECONCILIATION`)
	reCDRDrawerLine = regexp.MustCompile(`(?m)^\s*DRAWER\s*#?\s*\d+\b.*$`)
	reCDRGrand      = regexp.MustCompile(`GRAND\s+TOTALS?`)
	reTrailingInt   = regexp.MustCompile(`(?:^|\s)(\d{1,4})\s*$`)
)

func matchCDR(text string) bool {
	return reCDRTitle.MatchString(text)
}

func parseCDR(text string) (domain.ExtractedFields, float64) {
	fields := &domain.CDRReportFields{
		DrawerTotals: drawerTotals(text),
		OrderIDs:     orderIDs(text),
	}

	if totalsLine, ok := grandTotalsLine(text); ok {
		amounts := moneyValues(totalsLine)
		fields.GrandTotal = largestMoney(amounts)
		if len(amounts) >= 3 {
			fields.TotalRefund = amounts[0]
		}
		fields.TransCount = transactionCount(totalsLine)
	}

	filled := 0
	if len(fields.DrawerTotals) > 0 {
		filled++
	}
	if fields.GrandTotal != "" {
		filled++
	}
	if fields.TransCount > 0 {
		filled++
	}
	if len(fields.OrderIDs) > 0 {
		filled++
	}

	return domain.ExtractedFields{Kind: domain.KindCDRReport, CDRReport: fields}, slotConfidence(filled, 4)
}

func drawerTotals(text string) []string {
	var out []string
	for _, line := range reCDRDrawerLine.FindAllString(text, -1) {
		amounts := moneyValues(line)
		if len(amounts) == 0 {
			continue
		}
		out = append(out, amounts[len(amounts)-1])
	}
	return out
}

// grandTotalsLine returns the first line at or after the GRAND TOTALS marker
// that carries at least one dollar amount.
func grandTotalsLine(text string) (string, bool) {
	loc := reCDRGrand.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := lines(text[loc[0]:])
	for i, line := range rest {
		if i > 2 {
			break
		}
		if reMoney.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

// transactionCount parses the trailing integer, ignoring values that fail
// the sanity cap.
func transactionCount(line string) int {
	m := reTrailingInt.FindStringSubmatch(strings.TrimRight(line, " \t"))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > maxTransCount {
		return 0
	}
	return n
}
