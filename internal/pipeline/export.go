package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"disputeflow/internal"
)

// ExportAnomaliesToXLSX writes the enriched anomaly sequence to a workbook,
// one row per anomaly with both match statuses and all enrichment columns.
func ExportAnomaliesToXLSX(records []internal.LedgerRecord, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"cycle", "merchant", "due_date", "case_reference", "reason_code", "reason_category",
		"transaction_date", "transaction_amount", "post_date", "dispute_amount", "card_last4",
		"capture_status", "opayo_reference", "opayo_address", "opayo_postcode",
		"booking_status", "booking_reference", "folder_number", "travel_date",
		"origin", "destination", "airline_code", "invoice_date", "return_date", "contact_email",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		values := []any{
			rec.Cycle, rec.Merchant, rec.DueDate, rec.CaseReference, rec.ReasonCode, rec.ReasonCategory,
			rec.TransactionDate, rec.TransactionAmount, rec.PostDate, rec.DisputeAmount, rec.CardLast4,
			string(rec.CaptureStatus), rec.OpayoReference, rec.OpayoAddress, rec.OpayoPostcode,
			string(rec.BookingStatus), rec.BookingReference, rec.FolderNumber, rec.TravelDate,
			rec.Origin, rec.Destination, rec.AirlineCode, rec.InvoiceDate, rec.ReturnDate, rec.ContactEmail,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
