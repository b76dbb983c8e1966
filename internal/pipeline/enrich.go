package pipeline

import (
	"math"
	"strings"

	"disputeflow/internal"
	"disputeflow/internal/util"
)

// DefaultAmountTolerance is the Stage A acceptance window: a capture row
// qualifies when |capture.Amount - dispute amount| is strictly below it.
const DefaultAmountTolerance = 0.05

// Enrich runs both cross-reference stages over the anomaly sequence and
// returns a new sequence; inputs are never mutated.
func Enrich(anomalies []internal.LedgerRecord, captures []internal.CaptureRecord, bookings []internal.BookingRecord, tolerance float64) []internal.LedgerRecord {
	return MatchBookings(MatchCaptures(anomalies, captures, tolerance), bookings)
}

// MatchCaptures links each anomaly to at most one Opayo capture row by
// card-last-4 equality plus amount proximity. The scan is greedy: the first
// qualifying row in capture order wins even when a later row is closer in
// amount. That keeps reruns reproducible and is intentionally not an
// optimal assignment.
func MatchCaptures(anomalies []internal.LedgerRecord, captures []internal.CaptureRecord, tolerance float64) []internal.LedgerRecord {
	if tolerance <= 0 {
		tolerance = DefaultAmountTolerance
	}

	out := make([]internal.LedgerRecord, 0, len(anomalies))
	for _, rec := range anomalies {
		out = append(out, matchCapture(rec, captures, tolerance))
	}
	return out
}

func matchCapture(rec internal.LedgerRecord, captures []internal.CaptureRecord, tolerance float64) internal.LedgerRecord {
	// No capture source at all (file absent or required columns unresolved):
	// the stage was never applicable, which is not the same as scanning and
	// finding nothing.
	if len(captures) == 0 {
		rec.CaptureStatus = internal.StatusNotApplicable
		return rec
	}

	amount := util.CleanAmount(rec.TransactionAmount)
	last4 := strings.TrimSpace(rec.CardLast4)
	if amount == 0 || len(last4) < 4 || last4 == internal.FieldNA || last4 == internal.Last4Unknown {
		rec.CaptureStatus = internal.StatusNotApplicable
		return rec
	}

	for _, capture := range captures {
		if capture.Last4 == last4 && math.Abs(capture.Amount-amount) < tolerance {
			rec.CaptureStatus = internal.StatusMatch
			rec.OpayoReference = capture.Reference
			rec.OpayoAddress = capture.Address
			rec.OpayoPostcode = capture.Postcode
			return rec
		}
	}

	rec.CaptureStatus = internal.StatusNoMatch
	return rec
}

// MatchBookings links the capture reference of each capture-matched anomaly
// to at most one booking row by normalized-identifier equality, first match
// in booking order. Anomalies without a capture match never reach this
// search and are marked NOT_APPLICABLE.
func MatchBookings(anomalies []internal.LedgerRecord, bookings []internal.BookingRecord) []internal.LedgerRecord {
	out := make([]internal.LedgerRecord, 0, len(anomalies))
	for _, rec := range anomalies {
		out = append(out, matchBooking(rec, bookings))
	}
	return out
}

func matchBooking(rec internal.LedgerRecord, bookings []internal.BookingRecord) internal.LedgerRecord {
	if rec.CaptureStatus != internal.StatusMatch || len(bookings) == 0 {
		rec.BookingStatus = internal.StatusNotApplicable
		return rec
	}

	want := util.CleanIdentifier(rec.OpayoReference)
	if want == "" {
		rec.BookingStatus = internal.StatusNotApplicable
		return rec
	}

	for _, booking := range bookings {
		if util.CleanIdentifier(booking.Reference) != want {
			continue
		}
		rec.BookingStatus = internal.StatusMatch
		rec.BookingReference = booking.Reference
		rec.FolderNumber = booking.FolderNumber
		rec.TravelDate = booking.TravelDate
		rec.Origin = booking.Origin
		rec.Destination = booking.Destination
		rec.AirlineCode = booking.AirlineCode
		rec.InvoiceDate = booking.InvoiceDate
		rec.ReturnDate = booking.ReturnDate
		rec.ContactEmail = booking.ContactEmail
		return rec
	}

	rec.BookingStatus = internal.StatusNoMatch
	return rec
}
