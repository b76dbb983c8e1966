package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSchemasOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	blob := "ledger:\n  caseReference: [\"portal case id\"]\n"
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}

	schemas, err := LoadSchemas(path)
	if err != nil {
		t.Fatal(err)
	}

	hm := ResolveHeaders([]string{"Portal Case ID"}, schemas.Ledger)
	if hm[FieldCaseReference] != "Portal Case ID" {
		t.Fatalf("caseReference=%q", hm[FieldCaseReference])
	}
	// The override replaces the whole list; the old aliases are gone.
	hm = ResolveHeaders([]string{"Case Reference"}, schemas.Ledger)
	if hm[FieldCaseReference] != "" {
		t.Fatalf("old alias should not resolve: %q", hm[FieldCaseReference])
	}
}

func TestLoadSchemasUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	if err := os.WriteFile(path, []byte("capture:\n  nosuch: [\"x\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSchemas(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadSchemasEmptyPath(t *testing.T) {
	schemas, err := LoadSchemas("")
	if err != nil {
		t.Fatal(err)
	}
	if len(schemas.Ledger) == 0 || len(schemas.Capture) == 0 || len(schemas.Booking) == 0 {
		t.Fatalf("defaults missing: %+v", schemas)
	}
}
