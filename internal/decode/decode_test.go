package decode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disputes.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"Case Reference", "Merchant", "Transaction Amount"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"CB-1001", "Acme Travel", "100.00"})
	_ = f.SetSheetRow(sheet, "A3", &[]any{"CB-1002", "Acme Travel", "42.50"})
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Headers) != 3 || table.Headers[0] != "Case Reference" {
		t.Fatalf("unexpected headers: %v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows want 2", len(table.Rows))
	}
	if got := table.Rows[1]["Case Reference"]; got != "CB-1002" {
		t.Fatalf("got %v want CB-1002", got)
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.csv")
	blob := "\xEF\xBB\xBFReference,Last 4 Digits,Amount (Inc. Surcharge)\nR-99,5678,100.03\n,,\nR-100,1234,12.00\n"
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.Headers[0] != "Reference" {
		t.Fatalf("BOM not stripped: %q", table.Headers[0])
	}
	if len(table.Rows) != 2 {
		t.Fatalf("empty row not skipped: %d rows", len(table.Rows))
	}
}

func TestLoadHTMLLabelledAsXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal-export.xls")
	blob := `<html><body><table>
<tr><th>Case Ref</th><th>Merchant</th></tr>
<tr><td> CB-2001 </td><td>Acme  Travel</td></tr>
</table></body></html>`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.Headers[0] != "Case Ref" {
		t.Fatalf("unexpected headers: %v", table.Headers)
	}
	if got := table.Rows[0]["Merchant"]; got != "Acme Travel" {
		t.Fatalf("spaces not collapsed: %v", got)
	}
}

func TestParseCaptureLines(t *testing.T) {
	lines := []string{
		"Opayo Capture Statement 01/05/2024",
		"Reference Card Amount",
		"R-99 xxxx5678 100.03",
		"R-100 ****1234 1,250.00",
		"Totals 1,350.03",
		"Page 1 of 1",
	}
	table := parseCaptureLines(lines)
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows want 2", len(table.Rows))
	}
	if got := table.Rows[0]["Last 4 Digits"]; got != "5678" {
		t.Fatalf("got %v want 5678", got)
	}
	if got := table.Rows[1]["Amount (Inc. Surcharge)"]; got != "1,250.00" {
		t.Fatalf("got %v want 1,250.00", got)
	}
}

func TestDecodable(t *testing.T) {
	if !Decodable("report.XLSX") || !Decodable("a.csv") || !Decodable("s.pdf") {
		t.Fatal("expected spreadsheet names to be decodable")
	}
	if Decodable("logo.png") || Decodable("readme") {
		t.Fatal("expected non-tabular names to be rejected")
	}
}
