package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"disputeflow/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS imports (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  refCount INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS snapshot_refs (
  snapshotId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  ref TEXT NOT NULL,
  PRIMARY KEY(snapshotId, position),
  FOREIGN KEY(snapshotId) REFERENCES snapshots(id)
);
CREATE INDEX IF NOT EXISTS idx_snapshot_refs_ref ON snapshot_refs(ref);

CREATE TABLE IF NOT EXISTS captures (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  position INTEGER NOT NULL,
  amount REAL NOT NULL,
  last4 TEXT NOT NULL,
  reference TEXT,
  address TEXT,
  postcode TEXT,
  source TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bookings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  reference TEXT NOT NULL UNIQUE,
  folderNumber TEXT,
  travelDate TEXT,
  origin TEXT,
  destination TEXT,
  airlineCode TEXT,
  invoiceDate TEXT,
  returnDate TEXT,
  contactEmail TEXT,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  importId INTEGER,
  baselineSource TEXT NOT NULL,
  updatedSource TEXT NOT NULL,
  anomalies INTEGER NOT NULL,
  captureMatched INTEGER NOT NULL,
  bookingMatched INTEGER NOT NULL,
  exported INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(importId) REFERENCES imports(id)
);

CREATE TABLE IF NOT EXISTS anomalies (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  caseReference TEXT NOT NULL,
  merchant TEXT,
  disputeAmount TEXT,
  captureStatus TEXT NOT NULL,
  bookingStatus TEXT NOT NULL,
  recordJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(runId, position),
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertImport(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.ImportRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO imports (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.ImportRow{}, err
	}

	row, err := d.GetImportByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.ImportRow{}, err
	}
	if row == nil {
		return internal.ImportRow{}, errors.New("failed to upsert import")
	}
	return *row, nil
}

func (d *DB) GetImportByProviderMessageID(provider, messageID string) (*internal.ImportRow, error) {
	var row internal.ImportRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM imports WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustImportByProviderMessageID(provider, messageID string) (internal.ImportRow, error) {
	row, err := d.GetImportByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.ImportRow{}, err
	}
	if row == nil {
		return internal.ImportRow{}, fmt.Errorf("import not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) ListImportsByStatus(status string, limit int) ([]internal.ImportRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM imports WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ImportRow
	for rows.Next() {
		var row internal.ImportRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateImportStatus(importID int, status string) error {
	_, err := d.conn.Exec(`UPDATE imports SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, importID)
	return err
}

// SaveSnapshot records a baseline case-reference set and makes it current.
// Older snapshots are kept for audit.
func (d *DB) SaveSnapshot(source string, refs []string) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`INSERT INTO snapshots (source, refCount) VALUES (?, ?)`, source, len(refs))
	if err != nil {
		return 0, err
	}
	snapshotID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshot_refs (snapshotId, position, ref) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for i, ref := range refs {
		if _, err := stmt.Exec(snapshotID, i, ref); err != nil {
			return 0, err
		}
	}

	if _, err := tx.Exec(`
INSERT INTO metadata (key, value) VALUES ('snapshot.current', ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, strconv.FormatInt(snapshotID, 10)); err != nil {
		return 0, err
	}

	return snapshotID, tx.Commit()
}

// CurrentSnapshotRefs returns the refs of the current baseline snapshot, or
// nil when no snapshot has been recorded yet.
func (d *DB) CurrentSnapshotRefs() ([]string, string, error) {
	current, err := d.GetMetadata("snapshot.current")
	if err != nil {
		return nil, "", err
	}
	if current == nil {
		return nil, "", nil
	}

	var source string
	if err := d.conn.QueryRow(`SELECT source FROM snapshots WHERE id = ?`, *current).Scan(&source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", err
	}

	rows, err := d.conn.Query(`SELECT ref FROM snapshot_refs WHERE snapshotId = ? ORDER BY position ASC`, *current)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, "", err
		}
		out = append(out, ref)
	}
	return out, source, rows.Err()
}

// ReplaceCaptures swaps the cached capture ledger for a fresh export. Order
// is preserved; the capture stage is order-sensitive.
func (d *DB) ReplaceCaptures(source string, records []internal.CaptureRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM captures`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO captures (position, amount, last4, reference, address, postcode, source)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.Exec(i, rec.Amount, rec.Last4, rec.Reference, rec.Address, rec.Postcode, source); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCaptures() ([]internal.CaptureRecord, error) {
	rows, err := d.conn.Query(`
SELECT amount, last4, reference, address, postcode
FROM captures ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CaptureRecord
	for rows.Next() {
		var rec internal.CaptureRecord
		if err := rows.Scan(&rec.Amount, &rec.Last4, &rec.Reference, &rec.Address, &rec.Postcode); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertBookings refreshes the booking cache from a back-office sync page.
// Rows without a reference are skipped: they can never satisfy the booking
// stage's equality match, and the cache is keyed by reference.
func (d *DB) UpsertBookings(records []internal.BookingRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO bookings (reference, folderNumber, travelDate, origin, destination, airlineCode, invoiceDate, returnDate, contactEmail)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(reference) DO UPDATE SET
  folderNumber=excluded.folderNumber,
  travelDate=excluded.travelDate,
  origin=excluded.origin,
  destination=excluded.destination,
  airlineCode=excluded.airlineCode,
  invoiceDate=excluded.invoiceDate,
  returnDate=excluded.returnDate,
  contactEmail=excluded.contactEmail,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.Reference == "" {
			continue
		}
		if _, err := stmt.Exec(
			rec.Reference, rec.FolderNumber, rec.TravelDate, rec.Origin, rec.Destination,
			rec.AirlineCode, rec.InvoiceDate, rec.ReturnDate, rec.ContactEmail,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListBookings() ([]internal.BookingRecord, error) {
	rows, err := d.conn.Query(`
SELECT reference, folderNumber, travelDate, origin, destination, airlineCode, invoiceDate, returnDate, contactEmail
FROM bookings ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.BookingRecord
	for rows.Next() {
		var rec internal.BookingRecord
		if err := rows.Scan(
			&rec.Reference, &rec.FolderNumber, &rec.TravelDate, &rec.Origin, &rec.Destination,
			&rec.AirlineCode, &rec.InvoiceDate, &rec.ReturnDate, &rec.ContactEmail,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(run internal.RunRow) (int64, error) {
	result, err := d.conn.Exec(`
INSERT INTO runs (traceId, importId, baselineSource, updatedSource, anomalies, captureMatched, bookingMatched)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, run.ImportID, run.BaselineSource, run.UpdatedSource, run.Anomalies, run.CaptureMatched, run.BookingMatched)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) MarkRunExported(runID int) error {
	_, err := d.conn.Exec(`UPDATE runs SET exported = 1 WHERE id = ?`, runID)
	return err
}

func (d *DB) ListRuns(limit int, unexportedOnly bool) ([]internal.RunRow, error) {
	query := `
SELECT id, traceId, importId, baselineSource, updatedSource, anomalies, captureMatched, bookingMatched, createdAt
FROM runs`
	if unexportedOnly {
		query += ` WHERE exported = 0`
	}
	query += ` ORDER BY id DESC LIMIT ?`

	rows, err := d.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var run internal.RunRow
		if err := rows.Scan(
			&run.ID, &run.TraceID, &run.ImportID, &run.BaselineSource, &run.UpdatedSource,
			&run.Anomalies, &run.CaptureMatched, &run.BookingMatched, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) InsertAnomalies(runID int64, records []internal.LedgerRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO anomalies (runId, position, caseReference, merchant, disputeAmount, captureStatus, bookingStatus, recordJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(
			runID, i, rec.CaseReference, rec.Merchant, rec.DisputeAmount,
			string(rec.CaptureStatus), string(rec.BookingStatus), string(recordJSON),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetRunAnomalies(runID int) ([]internal.LedgerRecord, error) {
	rows, err := d.conn.Query(`SELECT recordJson FROM anomalies WHERE runId = ? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.LedgerRecord
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var rec internal.LedgerRecord
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
