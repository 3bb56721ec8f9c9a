package domain

type FieldKind string

const (
	KindCoversheet FieldKind = "coversheet"
	KindTicket     FieldKind = "ticket"
	KindReceipt    FieldKind = "receipt"
	KindSummary    FieldKind = "summary"
	KindCDRReport  FieldKind = "cdr_report"
	KindDetail     FieldKind = "detail"
)

// ExtractedFields is a tagged union: Kind names the variant and exactly one
// of the payload pointers is set. All string values are uppercased by the
// parsers before they land here.
type ExtractedFields struct {
	Kind       FieldKind         `json:"kind"`
	Coversheet *CoversheetFields `json:"coversheet,omitempty"`
	Ticket     *TicketFields     `json:"ticket,omitempty"`
	Receipt    *ReceiptFields    `json:"receipt,omitempty"`
	Summary    *SummaryFields    `json:"summary,omitempty"`
	CDRReport  *CDRReportFields  `json:"cdr_report,omitempty"`
	Detail     *DetailFields     `json:"detail,omitempty"`
}

// CoversheetFields carries only the batch-type code the coversheet declared.
type CoversheetFields struct {
	DocumentType string `json:"document_type"`
}

// TicketFields come from delivery and return ticket pages.
type TicketFields struct {
	TicketType   string `json:"ticket_type,omitempty"`
	OrderID      string `json:"order_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	DeliveryDate string `json:"delivery_date,omitempty"`
}

// ReceiptLine is one transaction line on a receipt page.
type ReceiptLine struct {
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// ReceiptFields come from transaction-receipt pages.
type ReceiptFields struct {
	OrderID  string        `json:"order_id,omitempty"`
	Register string        `json:"register,omitempty"`
	Date     string        `json:"date,omitempty"`
	Total    string        `json:"total,omitempty"`
	Lines    []ReceiptLine `json:"lines,omitempty"`
}

// OrderRef is one (order id, customer) pair on a manifest or summary page.
type OrderRef struct {
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name,omitempty"`
}

// SummaryFields come from manifest and summary list pages.
type SummaryFields struct {
	ReportDate  string     `json:"report_date,omitempty"`
	StoreNumber string     `json:"store_number,omitempty"`
	Orders      []OrderRef `json:"orders,omitempty"`
}

// CDRReportFields come from cash-drawer report pages.
type CDRReportFields struct {
	DrawerTotals []string `json:"drawer_totals,omitempty"`
	GrandTotal   string   `json:"grand_total,omitempty"`
	TotalRefund  string   `json:"total_refund,omitempty"`
	TransCount   int      `json:"trans_count,omitempty"`
	OrderIDs     []string `json:"order_ids,omitempty"`
}

// DetailFields come from the generic detail parser for sales paperwork pages.
type DetailFields struct {
	OrderID        string `json:"order_id,omitempty"`
	CustomerName   string `json:"customer_name,omitempty"`
	Address        string `json:"address,omitempty"`
	Phone          string `json:"phone,omitempty"`
	DeliveryDate   string `json:"delivery_date,omitempty"`
	Salesperson    string `json:"salesperson,omitempty"`
	StatCode       string `json:"stat_code,omitempty"`
	Zone           string `json:"zone,omitempty"`
	CustomerCode   string `json:"customer_code,omitempty"`
	TotalSale      string `json:"total_sale,omitempty"`
	FinanceCompany string `json:"finance_company,omitempty"`
	FinanceAmount  string `json:"finance_amount,omitempty"`
}

// Extraction is the full result of running the extraction engine on a page.
type Extraction struct {
	Fields     ExtractedFields
	Confidence float64
	RawText    string
}

// RecognizedLine is one text line with its baseline endpoints in pixel
// coordinates, as reported by the recognizer.
type RecognizedLine struct {
	Text string
	X0   float64
	Y0   float64
	X1   float64
	Y1   float64
}

// Span is the horizontal extent of the line's baseline.
func (l RecognizedLine) Span() float64 {
	if l.X1 < l.X0 {
		return l.X0 - l.X1
	}
	return l.X1 - l.X0
}

// RecognizedText is the output of one OCR call. Confidence is the engine's
// certainty in percent, 0-100.
type RecognizedText struct {
	Text       string
	Confidence float64
	Lines      []RecognizedLine
}
