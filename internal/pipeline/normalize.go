package pipeline

import (
	"strings"

	"github.com/rs/zerolog"

	"disputeflow/internal"
	"disputeflow/internal/decode"
	"disputeflow/internal/util"
)

// NormalizeLedger turns a decoded dispute export into canonical records.
// Header resolution happens once for the table; unresolved fields get the
// "N/A" default on every row. Amount columns keep the raw cell text, cleaning
// is deferred to the stage that needs a number.
func NormalizeLedger(table *decode.Table, schema []FieldAliases) []internal.LedgerRecord {
	hm := ResolveHeaders(table.Headers, schema)

	out := make([]internal.LedgerRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		out = append(out, internal.LedgerRecord{
			Cycle:             textField(row, hm, FieldCycle),
			Merchant:          textField(row, hm, FieldMerchant),
			DueDate:           dateField(row, hm, FieldDueDate),
			CaseReference:     textField(row, hm, FieldCaseReference),
			ReasonCode:        textField(row, hm, FieldReasonCode),
			ReasonCategory:    textField(row, hm, FieldReasonCategory),
			TransactionDate:   dateField(row, hm, FieldTransactionDate),
			TransactionAmount: textField(row, hm, FieldTransactionAmount),
			PostDate:          dateField(row, hm, FieldPostDate),
			DisputeAmount:     textField(row, hm, FieldDisputeAmount),
			CardLast4:         last4Field(row, hm),
			Raw:               row,
		})
	}
	return out
}

// NormalizeCapture turns a decoded Opayo export into canonical capture rows.
// Amount and last-4 columns are required; without them the whole schema is
// unusable and the capture stage degrades to NOT_APPLICABLE, so an empty
// sequence is returned and a warning logged. Rows with a zero (unparseable)
// amount or a malformed last-4 are dropped here, not at match time.
func NormalizeCapture(table *decode.Table, schema []FieldAliases, log zerolog.Logger) []internal.CaptureRecord {
	hm := ResolveHeaders(table.Headers, schema)
	if hm[FieldAmount] == "" || hm[FieldLast4] == "" {
		log.Warn().
			Strs("headers", table.Headers).
			Msg("capture export missing amount or last-4 column, capture matching disabled")
		return nil
	}

	out := make([]internal.CaptureRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec := internal.CaptureRecord{
			Amount:    util.CleanAmount(row[hm[FieldAmount]]),
			Last4:     util.Last4(row[hm[FieldLast4]]),
			Reference: rawText(row, hm, FieldReference),
			Address:   rawText(row, hm, FieldAddress),
			Postcode:  rawText(row, hm, FieldPostcode),
		}
		if rec.Amount == 0 || len(rec.Last4) != 4 {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// NormalizeBooking turns a decoded back-office export into canonical booking
// rows. Only the reference column is required; rows with an empty reference
// are kept since booking matching tolerates absence.
func NormalizeBooking(table *decode.Table, schema []FieldAliases, log zerolog.Logger) []internal.BookingRecord {
	hm := ResolveHeaders(table.Headers, schema)
	if hm[FieldReference] == "" {
		log.Warn().
			Strs("headers", table.Headers).
			Msg("booking export missing reference column, booking matching disabled")
		return nil
	}

	out := make([]internal.BookingRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		out = append(out, internal.BookingRecord{
			Reference:    rawText(row, hm, FieldReference),
			FolderNumber: rawText(row, hm, FieldFolderNumber),
			TravelDate:   rawDate(row, hm, FieldTravelDate),
			Origin:       rawText(row, hm, FieldOrigin),
			Destination:  rawText(row, hm, FieldDestination),
			AirlineCode:  rawText(row, hm, FieldAirlineCode),
			InvoiceDate:  rawDate(row, hm, FieldInvoiceDate),
			ReturnDate:   rawDate(row, hm, FieldReturnDate),
			ContactEmail: rawText(row, hm, FieldContactEmail),
		})
	}
	return out
}

// textField stringifies a ledger cell, defaulting to "N/A" when the column
// is unresolved.
func textField(row decode.Row, hm HeaderMap, field string) string {
	header := hm[field]
	if header == "" {
		return internal.FieldNA
	}
	return strings.TrimSpace(util.Stringify(row[header]))
}

func dateField(row decode.Row, hm HeaderMap, field string) string {
	header := hm[field]
	if header == "" {
		return internal.FieldNA
	}
	return util.ResolveCalendarDate(row[header])
}

// last4Field keeps the last four characters of the card column. A missing
// column or empty cell yields the "unknown" sentinel rather than "N/A", so
// the value is either exactly four characters or recognizably absent.
func last4Field(row decode.Row, hm HeaderMap) string {
	header := hm[FieldCardLast4]
	if header == "" {
		return internal.Last4Unknown
	}
	last4 := util.Last4(row[header])
	if last4 == "" {
		return internal.Last4Unknown
	}
	return last4
}

// rawText is the auxiliary-schema variant of textField: optional columns
// default to empty, not "N/A".
func rawText(row decode.Row, hm HeaderMap, field string) string {
	header := hm[field]
	if header == "" {
		return ""
	}
	return strings.TrimSpace(util.Stringify(row[header]))
}

func rawDate(row decode.Row, hm HeaderMap, field string) string {
	header := hm[field]
	if header == "" {
		return ""
	}
	return util.ResolveCalendarDate(row[header])
}
