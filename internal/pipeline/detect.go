package pipeline

import (
	"strings"

	"disputeflow/internal"
	"disputeflow/internal/decode"
)

type DetectResult struct {
	IsReport bool
	Score    float64
	Reason   string
}

var reportKeywords = []string{"chargeback", "dispute", "retrieval", "capture statement", "opayo", "settlement", "daily export"}

// DetectReportMail scores whether a fetched message carries a ledger export
// worth processing. Pure keyword and attachment heuristics; undecided mail
// is skipped rather than failed.
func DetectReportMail(subject string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)

	score := 0.0
	for _, kw := range reportKeywords {
		if strings.Contains(subject, kw) {
			score += 0.3
		}
	}

	for _, name := range attachmentNames {
		if decode.Decodable(name) {
			score += 0.35
			break
		}
	}
	for _, name := range attachmentNames {
		if classifyName(name) != internal.ReportUnknown {
			score += 0.3
			break
		}
	}

	if score > 1 {
		score = 1
	}

	isReport := score >= 0.45
	reason := "rules_negative"
	if isReport {
		reason = "rules_positive"
	}
	return DetectResult{IsReport: isReport, Score: score, Reason: reason}
}

// ClassifyExport decides which ledger an export belongs to, first from the
// filename, then by sniffing which schema its headers resolve against.
func ClassifyExport(filename string, table *decode.Table, schemas Schemas) internal.ReportKind {
	if kind := classifyName(filename); kind != internal.ReportUnknown {
		return kind
	}
	return classifyHeaders(table, schemas)
}

func classifyName(filename string) internal.ReportKind {
	name := strings.ToLower(filename)
	switch {
	case containsAny(name, "dispute", "chargeback", "cback", "retrieval"):
		return internal.ReportDispute
	case containsAny(name, "opayo", "capture", "settlement"):
		return internal.ReportCapture
	case containsAny(name, "booking", "inet", "folder"):
		return internal.ReportBooking
	default:
		return internal.ReportUnknown
	}
}

// caseSniffAliases is the caseReference alias list minus the bare
// "reference" spellings. Capture exports carry a "Reference" column too, so
// sniffing with the full ledger schema would claim them for the dispute
// ledger.
var caseSniffAliases = []FieldAliases{
	{Field: FieldCaseReference, Aliases: []string{"case reference", "case ref", "caseid", "case no", "case number"}},
}

// classifyHeaders resolves the table against all three schemas. The dispute
// schema needs a case column plus last-4; capture needs amount plus last-4
// (dispute exports also carry amounts, so case wins); booking needs its
// folder column, since a bare "reference" header is too generic to be
// decisive.
func classifyHeaders(table *decode.Table, schemas Schemas) internal.ReportKind {
	if table == nil || len(table.Headers) == 0 {
		return internal.ReportUnknown
	}

	ledger := ResolveHeaders(table.Headers, schemas.Ledger)
	caseCol := ResolveHeaders(table.Headers, caseSniffAliases)
	if caseCol[FieldCaseReference] != "" && ledger[FieldCardLast4] != "" {
		return internal.ReportDispute
	}

	capture := ResolveHeaders(table.Headers, schemas.Capture)
	if capture[FieldAmount] != "" && capture[FieldLast4] != "" {
		return internal.ReportCapture
	}

	booking := ResolveHeaders(table.Headers, schemas.Booking)
	if booking[FieldReference] != "" && booking[FieldFolderNumber] != "" {
		return internal.ReportBooking
	}

	return internal.ReportUnknown
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
