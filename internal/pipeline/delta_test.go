package pipeline

import (
	"testing"

	"disputeflow/internal"
)

func ledgerRefs(refs ...string) []internal.LedgerRecord {
	out := make([]internal.LedgerRecord, 0, len(refs))
	for _, ref := range refs {
		out = append(out, internal.LedgerRecord{CaseReference: ref})
	}
	return out
}

func TestFindAnomalies(t *testing.T) {
	baseline := ledgerRefs("CB-1", "CB-2")
	updated := ledgerRefs("CB-1", "CB-3", "CB-2", "CB-4")

	anomalies := FindAnomalies(baseline, updated)
	if len(anomalies) != 2 {
		t.Fatalf("len=%d", len(anomalies))
	}
	if anomalies[0].CaseReference != "CB-3" || anomalies[1].CaseReference != "CB-4" {
		t.Fatalf("order not preserved: %+v", anomalies)
	}
}

func TestFindAnomaliesSkipsBlankRefs(t *testing.T) {
	updated := ledgerRefs("", internal.FieldNA, "  ", "CB-9")
	anomalies := FindAnomalies(nil, updated)
	if len(anomalies) != 1 || anomalies[0].CaseReference != "CB-9" {
		t.Fatalf("unexpected anomalies: %+v", anomalies)
	}
}

func TestFindAnomaliesTrimsBeforeCompare(t *testing.T) {
	baseline := ledgerRefs(" CB-1 ")
	updated := ledgerRefs("CB-1")
	if anomalies := FindAnomalies(baseline, updated); len(anomalies) != 0 {
		t.Fatalf("trimmed references should match: %+v", anomalies)
	}
}

func TestCaseRefs(t *testing.T) {
	refs := CaseRefs(ledgerRefs("CB-2", "", internal.FieldNA, "CB-1"))
	if len(refs) != 2 || refs[0] != "CB-2" || refs[1] != "CB-1" {
		t.Fatalf("refs=%v", refs)
	}
}
