package extraction

import (
	"regexp"
	"strings"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

// Manifest and summary list pages repeat (order id, customer name) pairs
// under a column header. OCR mangles column separators, so the line pattern
// tolerates pipes, semicolons, dashes and runs of whitespace between the two
// columns.

var (
	reSummaryHeader = regexp.MustCompile(`ORDER\s*(?:NO|NUMBER|#)?\.?\s+CUSTOMER`)
	reSummaryPair   = regexp.MustCompile(`^\s*(\d{6,9}[A-Z]{0,2})[\s|;:,\-]+([A-Z][A-Z .,'\-]{2,})\s*$`)
	reSummaryDate   = regexp.MustCompile(`(?:REPORT\s+)?DATE\s*[:.]?\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
	reSummaryStore  = regexp.MustCompile(`STORE\s*(?:NO|#)?\s*[:.]?\s*(\d{1,4})`)
)

func matchSummary(text string) bool {
	return reSummaryHeader.MatchString(text)
}

func parseSummary(text string) (domain.ExtractedFields, float64) {
	fields := &domain.SummaryFields{
		ReportDate:  captureAfter(reSummaryDate, text),
		StoreNumber: captureAfter(reSummaryStore, text),
		Orders:      summaryOrders(text),
	}

	filled := 0
	if fields.ReportDate != "" {
		filled++
	}
	if fields.StoreNumber != "" {
		filled++
	}
	if len(fields.Orders) > 0 {
		filled++
	}

	return domain.ExtractedFields{Kind: domain.KindSummary, Summary: fields}, slotConfidence(filled, 3)
}

// summaryOrders collects the repeated pairs, de-duplicating by order id while
// preserving first-seen order.
func summaryOrders(text string) []domain.OrderRef {
	var out []domain.OrderRef
	seen := make(map[string]struct{})
	for _, line := range lines(text) {
		m := reSummaryPair.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id := m[1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, domain.OrderRef{
			OrderID:      id,
			CustomerName: strings.TrimSpace(m[2]),
		})
	}
	return out
}
