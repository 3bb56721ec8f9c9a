package extraction

import (
	"regexp"
	"strings"
)

// Content-based classification: a page's own language can contradict what
// the coversheet claimed, e.g. a finance agreement filed under a sales
// batch. Patterns are checked in order; the first match wins.

var contentClassifiers = []struct {
	code string
	re   *regexp.Regexp
}{
	{"FINANCE", regexp.MustCompile(`SECURITY\s+AGREEMENT|ANNUAL\s+PERCENTAGE\s+RATE|FINANCE\s+CHARGE|RETAIL\s+INSTALLMENT`)},
	{"TICKET", reTicketTitle},
	{"RECEIPT", reReceiptTitle},
	{"CDR", reCDRTitle},
	{"MANIFEST", reSummaryHeader},
}

// ClassifyContent reports the document-type code clearly indicated by the
// recognized text, if any.
func (e *Engine) ClassifyContent(text string) (string, bool) {
	upper := strings.ToUpper(text)
	for _, c := range contentClassifiers {
		if c.re.MatchString(upper) {
			return c.code, true
		}
	}
	return "", false
}
