package pipeline

import (
	"testing"

	"disputeflow/internal"
)

func TestMatchCapturesTolerance(t *testing.T) {
	captures := []internal.CaptureRecord{
		{Amount: 125.00, Last4: "1234", Reference: "OPY-1", Address: "1 High St", Postcode: "AB1 2CD"},
	}

	tests := []struct {
		name   string
		amount string
		last4  string
		status internal.MatchStatus
	}{
		{"exact", "125.00", "1234", internal.StatusMatch},
		{"within window", "£125.04", "1234", internal.StatusMatch},
		{"window is strict", "125.05", "1234", internal.StatusNoMatch},
		{"wrong last4", "125.00", "9999", internal.StatusNoMatch},
		{"unknown last4", "125.00", internal.Last4Unknown, internal.StatusNotApplicable},
		{"unparseable amount", "pending", "1234", internal.StatusNotApplicable},
	}
	for _, tt := range tests {
		rec := internal.LedgerRecord{CaseReference: "CB-1", TransactionAmount: tt.amount, CardLast4: tt.last4}
		got := matchCapture(rec, captures, DefaultAmountTolerance)
		if got.CaptureStatus != tt.status {
			t.Fatalf("%s: status=%s", tt.name, got.CaptureStatus)
		}
		if tt.status == internal.StatusMatch {
			if got.OpayoReference != "OPY-1" || got.OpayoAddress != "1 High St" || got.OpayoPostcode != "AB1 2CD" {
				t.Fatalf("%s: capture fields not copied: %+v", tt.name, got)
			}
		}
	}
}

func TestMatchCapturesEmptyLedger(t *testing.T) {
	rec := internal.LedgerRecord{TransactionAmount: "125.00", CardLast4: "1234"}
	got := matchCapture(rec, nil, DefaultAmountTolerance)
	if got.CaptureStatus != internal.StatusNotApplicable {
		t.Fatalf("status=%s", got.CaptureStatus)
	}
}

func TestMatchCapturesFirstMatchWins(t *testing.T) {
	captures := []internal.CaptureRecord{
		{Amount: 10.01, Last4: "1234", Reference: "OPY-FIRST"},
		{Amount: 10.00, Last4: "1234", Reference: "OPY-CLOSER"},
	}
	rec := internal.LedgerRecord{TransactionAmount: "10.00", CardLast4: "1234"}
	got := matchCapture(rec, captures, DefaultAmountTolerance)
	if got.OpayoReference != "OPY-FIRST" {
		t.Fatalf("reference=%q", got.OpayoReference)
	}
}

func TestMatchBookings(t *testing.T) {
	bookings := []internal.BookingRecord{
		{Reference: "OPY-1.000", FolderNumber: "F-7", Origin: "LGW", Destination: "MLA", ContactEmail: "ops@example.com"},
	}

	rec := internal.LedgerRecord{CaptureStatus: internal.StatusMatch, OpayoReference: "  OPY-1  "}
	got := matchBooking(rec, bookings)
	if got.BookingStatus != internal.StatusMatch {
		t.Fatalf("status=%s", got.BookingStatus)
	}
	if got.BookingReference != "OPY-1.000" || got.FolderNumber != "F-7" || got.Destination != "MLA" {
		t.Fatalf("booking fields not copied: %+v", got)
	}
}

func TestMatchBookingsNotApplicable(t *testing.T) {
	bookings := []internal.BookingRecord{{Reference: "OPY-1"}}

	tests := []struct {
		name string
		rec  internal.LedgerRecord
	}{
		{"capture no match", internal.LedgerRecord{CaptureStatus: internal.StatusNoMatch, OpayoReference: "OPY-1"}},
		{"capture not applicable", internal.LedgerRecord{CaptureStatus: internal.StatusNotApplicable}},
		{"empty reference", internal.LedgerRecord{CaptureStatus: internal.StatusMatch, OpayoReference: ""}},
	}
	for _, tt := range tests {
		if got := matchBooking(tt.rec, bookings); got.BookingStatus != internal.StatusNotApplicable {
			t.Fatalf("%s: status=%s", tt.name, got.BookingStatus)
		}
	}

	noBookings := matchBooking(internal.LedgerRecord{CaptureStatus: internal.StatusMatch, OpayoReference: "OPY-1"}, nil)
	if noBookings.BookingStatus != internal.StatusNotApplicable {
		t.Fatalf("empty booking ledger: status=%s", noBookings.BookingStatus)
	}
}

func TestMatchBookingsNoMatch(t *testing.T) {
	bookings := []internal.BookingRecord{{Reference: "OPY-2"}}
	rec := internal.LedgerRecord{CaptureStatus: internal.StatusMatch, OpayoReference: "OPY-1"}
	if got := matchBooking(rec, bookings); got.BookingStatus != internal.StatusNoMatch {
		t.Fatalf("status=%s", got.BookingStatus)
	}
}

func TestEnrichEndToEnd(t *testing.T) {
	anomalies := []internal.LedgerRecord{
		{CaseReference: "CB-1", TransactionAmount: "125.00", CardLast4: "1234"},
		{CaseReference: "CB-2", TransactionAmount: "80.00", CardLast4: "9999"},
	}
	captures := []internal.CaptureRecord{{Amount: 125.02, Last4: "1234", Reference: "OPY-1"}}
	bookings := []internal.BookingRecord{{Reference: "opy-1", FolderNumber: "F-3"}}

	out := Enrich(anomalies, captures, bookings, 0)
	if out[0].CaptureStatus != internal.StatusMatch || out[0].BookingStatus != internal.StatusMatch {
		t.Fatalf("first: %+v", out[0])
	}
	if out[0].FolderNumber != "F-3" {
		t.Fatalf("folderNumber=%q", out[0].FolderNumber)
	}
	if out[1].CaptureStatus != internal.StatusNoMatch || out[1].BookingStatus != internal.StatusNotApplicable {
		t.Fatalf("second: %+v", out[1])
	}
	if anomalies[0].CaptureStatus != "" {
		t.Fatalf("input mutated: %+v", anomalies[0])
	}
}
