package pipeline

import (
	"strings"

	"disputeflow/internal"
)

// FindAnomalies returns the records of updated whose trimmed case-reference
// does not appear in baseline, preserving updated's order. Records with an
// empty or "N/A" reference are skipped. This is a one-way diff: removals and
// field changes on matched references are not reported.
func FindAnomalies(baseline, updated []internal.LedgerRecord) []internal.LedgerRecord {
	refs := make(map[string]struct{}, len(baseline))
	for _, rec := range baseline {
		if ref := strings.TrimSpace(rec.CaseReference); ref != "" {
			refs[ref] = struct{}{}
		}
	}
	return FindAnomaliesAgainst(refs, updated)
}

// FindAnomaliesAgainst is FindAnomalies with a pre-built baseline set, used
// when the baseline lives in storage as a snapshot.
func FindAnomaliesAgainst(baseline map[string]struct{}, updated []internal.LedgerRecord) []internal.LedgerRecord {
	out := make([]internal.LedgerRecord, 0)
	for _, rec := range updated {
		ref := strings.TrimSpace(rec.CaseReference)
		if ref == "" || ref == internal.FieldNA {
			continue
		}
		if _, known := baseline[ref]; !known {
			out = append(out, rec)
		}
	}
	return out
}

// RefSet builds the baseline lookup set from stored snapshot references.
func RefSet(refs []string) map[string]struct{} {
	out := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if trimmed := strings.TrimSpace(ref); trimmed != "" {
			out[trimmed] = struct{}{}
		}
	}
	return out
}

// CaseRefs lists the trimmed, non-empty case-references of a normalized
// export, in order, for snapshot persistence.
func CaseRefs(records []internal.LedgerRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		ref := strings.TrimSpace(rec.CaseReference)
		if ref == "" || ref == internal.FieldNA {
			continue
		}
		out = append(out, ref)
	}
	return out
}
