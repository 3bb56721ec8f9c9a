package extraction

import (
	"testing"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

func TestParseTicket(t *testing.T) {
	text := `DELIVERY TICKET
ORDER NO: 1234567
CUSTOMER: JOHN SMITH
DELIVERY DATE: 3/14/2025`

	if !matchTicket(text) {
		t.Fatal("expected ticket title to match")
	}
	fields, confidence := parseTicket(text)
	if fields.Kind != domain.KindTicket {
		t.Fatalf("expected ticket kind, got %q", fields.Kind)
	}
	tk := fields.Ticket
	if tk.TicketType != "DELIVERY" {
		t.Fatalf("expected DELIVERY, got %q", tk.TicketType)
	}
	if tk.OrderID != "1234567" {
		t.Fatalf("expected order 1234567, got %q", tk.OrderID)
	}
	if tk.CustomerName != "JOHN SMITH" {
		t.Fatalf("expected JOHN SMITH, got %q", tk.CustomerName)
	}
	if tk.DeliveryDate != "3/14/2025" {
		t.Fatalf("expected 3/14/2025, got %q", tk.DeliveryDate)
	}
	if confidence != 1 {
		t.Fatalf("expected confidence 1, got %v", confidence)
	}
}

func TestParseTicketFallsBackToAnyOrderToken(t *testing.T) {
	text := `RETURN TICKET
REF 7654321 JONES`

	fields, _ := parseTicket(text)
	if fields.Ticket.OrderID != "7654321" {
		t.Fatalf("expected fallback order 7654321, got %q", fields.Ticket.OrderID)
	}
}

func TestParseReceipt(t *testing.T) {
	text := `TRANSACTION RECEIPT
REGISTER #12
ORDER 7654321  4/02/2025
 2  SOFA CUSHION  $59.98
 1  LAMP  $24.99
TOTAL  $84.97`

	if !matchReceipt(text) {
		t.Fatal("expected receipt title to match")
	}
	fields, confidence := parseReceipt(text)
	rc := fields.Receipt
	if rc.OrderID != "7654321" {
		t.Fatalf("expected order 7654321, got %q", rc.OrderID)
	}
	if rc.Register != "12" {
		t.Fatalf("expected register 12, got %q", rc.Register)
	}
	if rc.Total != "84.97" {
		t.Fatalf("expected total 84.97, got %q", rc.Total)
	}
	if len(rc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(rc.Lines))
	}
	if rc.Lines[0].Quantity != 2 || rc.Lines[0].Description != "SOFA CUSHION" || rc.Lines[0].Amount != "59.98" {
		t.Fatalf("unexpected first line: %+v", rc.Lines[0])
	}
	if confidence != 1 {
		t.Fatalf("expected confidence 1, got %v", confidence)
	}
}

func TestParseSummaryDeduplicatesOrders(t *testing.T) {
	text := `ORDER NO. CUSTOMER NAME
REPORT DATE: 5/01/2025
STORE #42
1234567   ALICE BROWN
2345678 | BOB JONES
1234567   ALICE BROWN`

	if !matchSummary(text) {
		t.Fatal("expected summary header to match")
	}
	fields, confidence := parseSummary(text)
	sm := fields.Summary
	if sm.ReportDate != "5/01/2025" {
		t.Fatalf("expected report date, got %q", sm.ReportDate)
	}
	if sm.StoreNumber != "42" {
		t.Fatalf("expected store 42, got %q", sm.StoreNumber)
	}
	if len(sm.Orders) != 2 {
		t.Fatalf("expected 2 deduplicated orders, got %d", len(sm.Orders))
	}
	if sm.Orders[0].OrderID != "1234567" || sm.Orders[0].CustomerName != "ALICE BROWN" {
		t.Fatalf("unexpected first order: %+v", sm.Orders[0])
	}
	if sm.Orders[1].OrderID != "2345678" || sm.Orders[1].CustomerName != "BOB JONES" {
		t.Fatalf("unexpected second order: %+v", sm.Orders[1])
	}
	if confidence != 1 {
		t.Fatalf("expected confidence 1, got %v", confidence)
	}
}

func TestParseCDRGrandTotals(t *testing.T) {
	text := `CASH DRAWER REPORT
DRAWER #1    SALES    $120.00
DRAWER #2    SALES    $230.00
GRAND TOTALS
$100.00   $250.00   $350.00   12`

	if !matchCDR(text) {
		t.Fatal("expected cdr title to match")
	}
	fields, _ := parseCDR(text)
	cdr := fields.CDRReport
	if len(cdr.DrawerTotals) != 2 || cdr.DrawerTotals[0] != "120.00" || cdr.DrawerTotals[1] != "230.00" {
		t.Fatalf("unexpected drawer totals: %v", cdr.DrawerTotals)
	}
	if cdr.GrandTotal != "350.00" {
		t.Fatalf("expected grand total 350.00, got %q", cdr.GrandTotal)
	}
	if cdr.TotalRefund != "100.00" {
		t.Fatalf("expected refund 100.00, got %q", cdr.TotalRefund)
	}
	if cdr.TransCount != 12 {
		t.Fatalf("expected trans count 12, got %d", cdr.TransCount)
	}
}

func TestParseCDRKeepsSeparatorlessThousands(t *testing.T) {
	text := `CASH DRAWER REPORT
GRAND TOTALS
$100.00   $250.00   $1500.00   12`

	fields, _ := parseCDR(text)
	cdr := fields.CDRReport
	if cdr.GrandTotal != "1500.00" {
		t.Fatalf("expected grand total 1500.00, got %q", cdr.GrandTotal)
	}
	if cdr.TotalRefund != "100.00" {
		t.Fatalf("expected refund 100.00, got %q", cdr.TotalRefund)
	}
}

func TestMoneyValuesAcceptBothThousandsForms(t *testing.T) {
	got := moneyValues("TOTAL $1,500.00 PAID $1500.00 CHANGE $2.50")
	want := []string{"1,500.00", "1500.00", "2.50"}
	if len(got) != len(want) {
		t.Fatalf("moneyValues = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("moneyValues[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseCDRIgnoresImplausibleTransCount(t *testing.T) {
	text := `CASH DRAWER REPORT
GRAND TOTAL  $350.00   1500`

	fields, _ := parseCDR(text)
	if got := fields.CDRReport.TransCount; got != 0 {
		t.Fatalf("expected trans count 0 for implausible value, got %d", got)
	}
}

func TestParseCDRTwoAmountsLeaveRefundEmpty(t *testing.T) {
	text := `DRAWER RECONCILIATION
GRAND TOTALS  $250.00  $350.00`

	fields, _ := parseCDR(text)
	cdr := fields.CDRReport
	if cdr.GrandTotal != "350.00" {
		t.Fatalf("expected grand total 350.00, got %q", cdr.GrandTotal)
	}
	if cdr.TotalRefund != "" {
		t.Fatalf("expected empty refund, got %q", cdr.TotalRefund)
	}
}

func TestParseDetail(t *testing.T) {
	text := `SALE RECORD
ORDER NO: 9876543
BILL TO:
JANE DOE
123 MAIN ST
SPRINGFIELD IL

DELIVERY DATE: 6/15/2025
SALESPERSON: MARY
STAT CODE: 0K
ZONE: A2
CUST CODE: JD-01
PHONE: (555) 999-0000
MOBILE: (555) 123-4567
GROSS SALES  $1,299.99`

	fields, confidence := parseDetail(text)
	dt := fields.Detail
	if dt.OrderID != "9876543" {
		t.Fatalf("expected order 9876543, got %q", dt.OrderID)
	}
	if dt.CustomerName != "JANE DOE" {
		t.Fatalf("expected JANE DOE, got %q", dt.CustomerName)
	}
	if dt.Address != "123 MAIN ST, SPRINGFIELD IL" {
		t.Fatalf("unexpected address: %q", dt.Address)
	}
	if dt.StatCode != "OK" {
		t.Fatalf("expected stat code OK after correction, got %q", dt.StatCode)
	}
	if dt.Phone != "(555) 123-4567" {
		t.Fatalf("expected mobile number preferred, got %q", dt.Phone)
	}
	if dt.Zone != "A2" || dt.CustomerCode != "JD-01" {
		t.Fatalf("unexpected routing fields: zone=%q cust=%q", dt.Zone, dt.CustomerCode)
	}
	if dt.TotalSale != "1,299.99" {
		t.Fatalf("expected total sale 1,299.99, got %q", dt.TotalSale)
	}
	if confidence <= 0 || confidence > 1 {
		t.Fatalf("confidence out of range: %v", confidence)
	}
}

func TestOrderIDsNeighborFiltering(t *testing.T) {
	text := "PAY $1234567.89 TO 7654321 AND 12345678901 REF 9999999ABC"

	ids := orderIDs(text)
	if len(ids) != 1 || ids[0] != "7654321" {
		t.Fatalf("expected only 7654321, got %v", ids)
	}
}

func TestConfidencesStayInRange(t *testing.T) {
	texts := []string{
		"",
		"DELIVERY TICKET",
		"TRANSACTION RECEIPT",
		"CASH DRAWER REPORT",
		"ORDER NO. CUSTOMER",
	}
	parsers := []func(string) (domain.ExtractedFields, float64){
		parseTicket, parseReceipt, parseSummary, parseCDR, parseDetail,
	}
	for _, text := range texts {
		for _, parse := range parsers {
			_, c := parse(text)
			if c < 0 || c > 1 {
				t.Fatalf("confidence %v out of range for %q", c, text)
			}
		}
	}
}

func TestClassifyContent(t *testing.T) {
	e := NewEngine(nil, nil)

	cases := []struct {
		text string
		code string
		ok   bool
	}{
		{"RETAIL INSTALLMENT CONTRACT\nANNUAL PERCENTAGE RATE 21.99%", "FINANCE", true},
		{"DELIVERY TICKET\nORDER 1234567", "TICKET", true},
		{"TRANSACTION RECEIPT", "RECEIPT", true},
		{"CASH DRAWER REPORT", "CDR", true},
		{"ORDER NO. CUSTOMER", "MANIFEST", true},
		{"nothing recognizable here", "", false},
	}
	for _, tc := range cases {
		code, ok := e.ClassifyContent(tc.text)
		if code != tc.code || ok != tc.ok {
			t.Fatalf("ClassifyContent(%q) = (%q, %v), want (%q, %v)", tc.text, code, ok, tc.code, tc.ok)
		}
	}
}
