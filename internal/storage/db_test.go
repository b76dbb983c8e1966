package storage

import (
	"path/filepath"
	"testing"

	"disputeflow/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)

	refs, _, err := db.CurrentSnapshotRefs()
	if err != nil {
		t.Fatal(err)
	}
	if refs != nil {
		t.Fatalf("expected no snapshot, got %v", refs)
	}

	if _, err := db.SaveSnapshot("week1.xlsx", []string{"CB-2", "CB-1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveSnapshot("week2.xlsx", []string{"CB-3"}); err != nil {
		t.Fatal(err)
	}

	refs, source, err := db.CurrentSnapshotRefs()
	if err != nil {
		t.Fatal(err)
	}
	if source != "week2.xlsx" {
		t.Fatalf("source=%q", source)
	}
	if len(refs) != 1 || refs[0] != "CB-3" {
		t.Fatalf("refs=%v", refs)
	}
}

func TestReplaceCapturesKeepsOrder(t *testing.T) {
	db := openTestDB(t)

	first := []internal.CaptureRecord{
		{Amount: 10.00, Last4: "1111", Reference: "OPY-B"},
		{Amount: 20.00, Last4: "2222", Reference: "OPY-A"},
	}
	if err := db.ReplaceCaptures("s1.pdf", first); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceCaptures("s2.pdf", first[:1]); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListCaptures()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Reference != "OPY-B" {
		t.Fatalf("captures=%+v", got)
	}
}

func TestUpsertBookings(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertBookings([]internal.BookingRecord{
		{Reference: "OPY-1", FolderNumber: "F-1"},
		{Reference: ""},
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertBookings([]internal.BookingRecord{
		{Reference: "OPY-1", FolderNumber: "F-1b"},
		{Reference: "OPY-2", FolderNumber: "F-2"},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListBookings()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("bookings=%+v", got)
	}
	if got[0].Reference != "OPY-1" || got[0].FolderNumber != "F-1b" {
		t.Fatalf("first booking: %+v", got[0])
	}
}

func TestAnomalyRoundTrip(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.InsertRun(internal.RunRow{
		TraceID:        "trace-1",
		BaselineSource: "week1.xlsx",
		UpdatedSource:  "week2.xlsx",
		Anomalies:      1,
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := internal.LedgerRecord{
		CaseReference:  "CB-9",
		Merchant:       "ACME TRAVEL",
		CaptureStatus:  internal.StatusMatch,
		BookingStatus:  internal.StatusNoMatch,
		OpayoReference: "OPY-9",
		Raw:            map[string]any{"Case Reference": "CB-9"},
	}
	if err := db.InsertAnomalies(runID, []internal.LedgerRecord{rec}); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetRunAnomalies(int(runID))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("anomalies=%d", len(got))
	}
	if got[0].CaseReference != "CB-9" || got[0].CaptureStatus != internal.StatusMatch || got[0].OpayoReference != "OPY-9" {
		t.Fatalf("round trip: %+v", got[0])
	}

	runs, err := db.ListRuns(10, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs=%d", len(runs))
	}
	if err := db.MarkRunExported(int(runID)); err != nil {
		t.Fatal(err)
	}
	runs, err = db.ListRuns(10, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("unexported runs=%d", len(runs))
	}
}
