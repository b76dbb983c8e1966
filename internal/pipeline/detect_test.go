package pipeline

import (
	"testing"

	"disputeflow/internal"
	"disputeflow/internal/decode"
)

func TestDetectReportMail(t *testing.T) {
	tests := []struct {
		name        string
		subject     string
		attachments []string
		want        bool
	}{
		{"chargeback with export", "Weekly chargeback report", []string{"cback_export.xlsx"}, true},
		{"capture statement", "Opayo capture statement", []string{"statement.pdf"}, true},
		{"plain attachment", "Monthly newsletter", []string{"news.xlsx"}, false},
		{"no attachments", "dispute update", nil, false},
		{"unrelated", "Lunch on Friday?", []string{"menu.docx"}, false},
	}
	for _, tt := range tests {
		got := DetectReportMail(tt.subject, tt.attachments)
		if got.IsReport != tt.want {
			t.Fatalf("%s: isReport=%v score=%.2f", tt.name, got.IsReport, got.Score)
		}
	}
}

func TestClassifyExportByName(t *testing.T) {
	tests := []struct {
		filename string
		want     internal.ReportKind
	}{
		{"dispute_2026-08.xlsx", internal.ReportDispute},
		{"cback_export.csv", internal.ReportDispute},
		{"opayo_statement.pdf", internal.ReportCapture},
		{"inet_folders.xlsx", internal.ReportBooking},
	}
	for _, tt := range tests {
		if got := ClassifyExport(tt.filename, nil, DefaultSchemas()); got != tt.want {
			t.Fatalf("%s: kind=%s", tt.filename, got)
		}
	}
}

func TestClassifyExportByHeaders(t *testing.T) {
	schemas := DefaultSchemas()

	dispute := &decode.Table{Headers: []string{"Case Reference", "Transaction Amount", "Card Last 4"}}
	if got := ClassifyExport("export.xlsx", dispute, schemas); got != internal.ReportDispute {
		t.Fatalf("dispute headers: kind=%s", got)
	}

	capture := &decode.Table{Headers: []string{"Reference", "Last 4 Digits", "Amount (Inc. Surcharge)"}}
	if got := ClassifyExport("export.xlsx", capture, schemas); got != internal.ReportCapture {
		t.Fatalf("capture headers: kind=%s", got)
	}

	booking := &decode.Table{Headers: []string{"Inet Ref", "Folder Number", "Travel Date"}}
	if got := ClassifyExport("export.xlsx", booking, schemas); got != internal.ReportBooking {
		t.Fatalf("booking headers: kind=%s", got)
	}

	unknown := &decode.Table{Headers: []string{"Name", "Phone"}}
	if got := ClassifyExport("export.xlsx", unknown, schemas); got != internal.ReportUnknown {
		t.Fatalf("unknown headers: kind=%s", got)
	}
}
