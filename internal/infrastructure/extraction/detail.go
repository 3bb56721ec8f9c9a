package extraction

import (
	"regexp"
	"strings"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

// The detail parser is the fallback for sales paperwork that carries no
// recognizable title: it scrapes the header block for order, customer and
// routing fields, plus the optional total-sale and financing blocks.

var (
	reDetailOrder    = regexp.MustCompile(`ORDER\s*(?:NO|NUMBER|#)?\s*[:.]?\s*(\d{6,9}[A-Z]{0,2})`)
	reDetailCustomer = regexp.MustCompile(`(?m)^\s*CUSTOMER\s*[:.]?\s*(.+)$`)
	reBillTo         = regexp.MustCompile(`(?m)^\s*BILL\s+TO\s*[:.]?\s*$`)
	reDetailDate     = regexp.MustCompile(`DELIVER(?:Y|ED)?\s*(?:DATE)?\s*[:.]?\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
	reSalesperson    = regexp.MustCompile(`(?:SALES(?:PERSON|MAN)|SLSP)\s*[:.]?\s*([A-Z][A-Z .\-]{1,30})`)
	reStatCode       = regexp.MustCompile(`STAT(?:US)?\s*(?:CODE)?\s*[:.]?\s*([A-Z01][A-Z01]{1,3})\b`)
	reZone           = regexp.MustCompile(`ZONE\s*[:.]?\s*([A-Z0-9]{1,4})\b`)
	reCustomerCode   = regexp.MustCompile(`CUST(?:OMER)?\s*(?:CODE|NO|#)\s*[:.]?\s*([A-Z0-9\-]{2,12})\b`)
	reGrossSales     = regexp.MustCompile(`(?m)^.*GROSS\s+SALES.*$`)
	reFinanceMarker  = regexp.MustCompile(`FINANC(?:E|ED|ING)`)
	reFinanceCompany = regexp.MustCompile(`FINANC(?:E|ED)\s*(?:BY|CO|COMPANY)?\s*[:.]?\s*([A-Z][A-Z0-9 .&\-]{2,40})`)
	reFinanceLine    = regexp.MustCompile(`(?m)^.*FINANC.*$`)
	reMobileLine     = regexp.MustCompile(`(?m)^.*(?:MOBILE|CELL|SECONDARY).*$`)
)

func parseDetail(text string) (domain.ExtractedFields, float64) {
	fields := &domain.DetailFields{
		OrderID:      captureAfter(reDetailOrder, text),
		DeliveryDate: captureAfter(reDetailDate, text),
		Salesperson:  captureAfter(reSalesperson, text),
		StatCode:     correctStatCode(captureAfter(reStatCode, text)),
		Zone:         captureAfter(reZone, text),
		CustomerCode: captureAfter(reCustomerCode, text),
		Phone:        detailPhone(text),
	}

	name, address := billTo(text)
	if name == "" {
		name = captureAfter(reDetailCustomer, text)
	}
	fields.CustomerName = name
	fields.Address = address

	if fields.OrderID == "" {
		fields.OrderID = headerOrderID(text)
	}

	if line := reGrossSales.FindString(text); line != "" {
		amounts := moneyValues(line)
		if len(amounts) > 0 {
			fields.TotalSale = amounts[len(amounts)-1]
		}
	}

	if reFinanceMarker.MatchString(text) {
		fields.FinanceCompany = captureAfter(reFinanceCompany, text)
		if line := reFinanceLine.FindString(text); line != "" {
			amounts := moneyValues(line)
			if len(amounts) > 0 {
				fields.FinanceAmount = amounts[len(amounts)-1]
			}
		}
	}

	filled := 0
	for _, v := range []string{
		fields.OrderID, fields.CustomerName, fields.Address, fields.Phone,
		fields.DeliveryDate, fields.Salesperson, fields.StatCode, fields.Zone,
		fields.CustomerCode,
	} {
		if v != "" {
			filled++
		}
	}

	return domain.ExtractedFields{Kind: domain.KindDetail, Detail: fields}, slotConfidence(filled, 9)
}

// billTo reads the block under a "Bill To" marker: the first non-empty line
// is the customer name, the following lines up to a blank are the address.
func billTo(text string) (name, address string) {
	loc := reBillTo.FindStringIndex(text)
	if loc == nil {
		return "", ""
	}
	var addressLines []string
	for _, line := range lines(text[loc[1]:]) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if name != "" {
				break
			}
			continue
		}
		if name == "" {
			name = trimmed
			continue
		}
		addressLines = append(addressLines, trimmed)
		if len(addressLines) == 2 {
			break
		}
	}
	return name, strings.Join(addressLines, ", ")
}

// headerOrderID is the inline fallback: the first order-shaped token within
// the top of the page.
func headerOrderID(text string) string {
	header := lines(text)
	if len(header) > 6 {
		header = header[:6]
	}
	return firstOrderID(strings.Join(header, "\n"))
}

// detailPhone prefers a number on a mobile/secondary line over the first
// phone on the page.
func detailPhone(text string) string {
	if line := reMobileLine.FindString(text); line != "" {
		if phone := rePhone.FindString(line); phone != "" {
			return phone
		}
	}
	return rePhone.FindString(text)
}
