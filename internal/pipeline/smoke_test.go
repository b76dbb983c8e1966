package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"disputeflow/internal"
	"disputeflow/internal/config"
	"disputeflow/internal/storage"
)

func writeXLSX(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func TestSmokeReconcileToXLSX(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	baseline := filepath.Join(tmp, "dispute_week1.xlsx")
	writeXLSX(t, baseline, [][]any{
		{"Case Reference", "Transaction Amount", "Card Last 4", "Reason Code"},
		{"CB-1001", "50.00", "XXXX5678", "13.1"},
	})

	updated := filepath.Join(tmp, "dispute_week2.xlsx")
	writeXLSX(t, updated, [][]any{
		{"Case Reference", "Transaction Amount", "Card Last 4", "Reason Code"},
		{"CB-1001", "50.00", "XXXX5678", "13.1"},
		{"CB-2002", "£125.00", "XXXX1234", "10.4"},
	})

	capture := filepath.Join(tmp, "opayo_statement.xlsx")
	writeXLSX(t, capture, [][]any{
		{"Reference", "Last 4 Digits", "Amount (Inc. Surcharge)", "Address 1", "Post Code"},
		{"OPY-77", "1234", "125.02", "1 High St", "AB1 2CD"},
	})

	booking := filepath.Join(tmp, "inet_bookings.xlsx")
	writeXLSX(t, booking, [][]any{
		{"Inet Ref", "Folder Number", "Origin", "Destination", "Contact Email"},
		{"OPY-77", "F-42", "LGW", "MLA", "ops@example.com"},
	})

	cfg, _ := config.Load()
	proc := NewProcessingService(db, cfg, DefaultSchemas(), zerolog.Nop())
	result, err := proc.ReconcileFiles(baseline, updated, capture, booking)
	if err != nil {
		t.Fatal(err)
	}
	if result.Anomalies != 1 || result.CaptureMatched != 1 || result.BookingMatched != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	records, err := db.GetRunAnomalies(int(result.RunID))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("anomalies=%d", len(records))
	}
	rec := records[0]
	if rec.CaseReference != "CB-2002" {
		t.Fatalf("caseReference=%q", rec.CaseReference)
	}
	if rec.CaptureStatus != internal.StatusMatch || rec.OpayoReference != "OPY-77" {
		t.Fatalf("capture stage: %+v", rec)
	}
	if rec.BookingStatus != internal.StatusMatch || rec.FolderNumber != "F-42" {
		t.Fatalf("booking stage: %+v", rec)
	}

	// The updated export becomes the next baseline, so an immediate rerun
	// reports nothing new.
	again, err := proc.ReconcileFiles("", updated, capture, booking)
	if err != nil {
		t.Fatal(err)
	}
	if again.Anomalies != 0 {
		t.Fatalf("rerun anomalies=%d", again.Anomalies)
	}

	out := filepath.Join(tmp, "anomalies.xlsx")
	if err := ExportAnomaliesToXLSX(records, out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}
