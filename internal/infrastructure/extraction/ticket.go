package extraction

import (
	"regexp"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

// Delivery and return ticket pages carry a title banner and a small header
// block with the order, customer and delivery date.

var (
	reTicketTitle    = regexp.MustCompile(`(?m)^[\s*]*(DELIVERY|RETURN|PICK[- ]?UP)\s+TICKET`)
	reTicketOrder    = regexp.MustCompile(`ORDER\s*(?:NO|NUMBER|#)?\s*[:.]?\s*(\d{6,9}[A-Z]{0,2})`)
	reTicketCustomer = regexp.MustCompile(`(?m)^\s*(?:CUSTOMER|SOLD TO|DELIVER TO)\s*[:.]?\s*(.+)$`)
	reTicketDate     = regexp.MustCompile(`(?:DELIVERY|RETURN)?\s*DATE\s*[:.]?\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
)

func matchTicket(text string) bool {
	return reTicketTitle.MatchString(text)
}

func parseTicket(text string) (domain.ExtractedFields, float64) {
	fields := &domain.TicketFields{
		TicketType:   captureAfter(reTicketTitle, text),
		OrderID:      captureAfter(reTicketOrder, text),
		CustomerName: captureAfter(reTicketCustomer, text),
		DeliveryDate: captureAfter(reTicketDate, text),
	}
	if fields.OrderID == "" {
		fields.OrderID = firstOrderID(text)
	}

	filled := 0
	for _, v := range []string{fields.TicketType, fields.OrderID, fields.CustomerName, fields.DeliveryDate} {
		if v != "" {
			filled++
		}
	}

	return domain.ExtractedFields{Kind: domain.KindTicket, Ticket: fields}, slotConfidence(filled, 4)
}
