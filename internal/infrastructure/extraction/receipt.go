package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

// Transaction-receipt pages have a receipt title, a register header and a
// run of quantity/description/amount transaction lines.

var (
	reReceiptTitle    = regexp.MustCompile(`(?m)^[\s*]*(?:TRANSACTION|SALES|CUSTOMER)\s+RECEIPT`)
	reReceiptRegister = regexp.MustCompile(`REG(?:ISTER)?\s*#?\s*(\d{1,3})`)
	reReceiptTotal    = regexp.MustCompile(`(?m)^\s*TOTAL\b.*?(\$?\d{1,3}(?:,\d{3})*\.\d{2})\s*$`)
	reReceiptLine     = regexp.MustCompile(`^\s*(\d{1,2})\s+([A-Z0-9][A-Z0-9 .\-/]*?)\s+(\$?\d{1,3}(?:,\d{3})*\.\d{2})\s*$`)
)

func matchReceipt(text string) bool {
	return reReceiptTitle.MatchString(text)
}

func parseReceipt(text string) (domain.ExtractedFields, float64) {
	fields := &domain.ReceiptFields{
		OrderID:  firstOrderID(text),
		Register: captureAfter(reReceiptRegister, text),
		Date:     reDate.FindString(text),
		Total:    strings.TrimPrefix(captureAfter(reReceiptTotal, text), "$"),
		Lines:    parseReceiptLines(text),
	}

	// The line run counts as one more slot next to the header fields.
	filled := 0
	for _, v := range []string{fields.OrderID, fields.Register, fields.Date, fields.Total} {
		if v != "" {
			filled++
		}
	}
	if len(fields.Lines) > 0 {
		filled++
	}

	return domain.ExtractedFields{Kind: domain.KindReceipt, Receipt: fields}, slotConfidence(filled, 5)
}

func parseReceiptLines(text string) []domain.ReceiptLine {
	var out []domain.ReceiptLine
	for _, line := range lines(text) {
		m := reReceiptLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, domain.ReceiptLine{
			Quantity:    qty,
			Description: strings.TrimSpace(m[2]),
			Amount:      strings.TrimPrefix(m[3], "$"),
		})
	}
	return out
}
