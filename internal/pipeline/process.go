package pipeline

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"disputeflow/internal"
	"disputeflow/internal/config"
	"disputeflow/internal/decode"
	"disputeflow/internal/storage"
)

// ProcessingService drives the reconciliation pipeline end to end: decode,
// normalize, delta, enrich, persist. The core stages stay pure; this service
// owns all I/O around them.
type ProcessingService struct {
	db      *storage.DB
	cfg     config.Config
	schemas Schemas
	log     zerolog.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, schemas Schemas, log zerolog.Logger) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, schemas: schemas, log: log}
}

type RunResult struct {
	RunID          int64
	TraceID        string
	Anomalies      int
	CaptureMatched int
	BookingMatched int
}

// ReconcileFiles runs one reconciliation from exports on disk. An empty
// baseline path falls back to the stored snapshot; empty capture/booking
// paths fall back to the cached copies of those ledgers. The updated
// export's references become the next baseline snapshot.
func (s *ProcessingService) ReconcileFiles(baselinePath, updatedPath, capturePath, bookingPath string) (RunResult, error) {
	updatedTable, err := decode.Load(updatedPath)
	if err != nil {
		return RunResult{}, fmt.Errorf("decode updated export: %w", err)
	}
	updated := NormalizeLedger(updatedTable, s.schemas.Ledger)

	baselineRefs, baselineSource, err := s.baselineRefs(baselinePath)
	if err != nil {
		return RunResult{}, err
	}

	captures, err := s.captureRecords(capturePath)
	if err != nil {
		return RunResult{}, err
	}
	bookings, err := s.bookingRecords(bookingPath)
	if err != nil {
		return RunResult{}, err
	}

	anomalies := FindAnomaliesAgainst(RefSet(baselineRefs), updated)
	enriched := Enrich(anomalies, captures, bookings, s.cfg.AmountTolerance)

	result, err := s.persistRun(nil, baselineSource, updatedPath, enriched)
	if err != nil {
		return RunResult{}, err
	}

	if _, err := s.db.SaveSnapshot(updatedPath, CaseRefs(updated)); err != nil {
		return RunResult{}, err
	}
	return result, nil
}

// ProcessByProviderMessageID reprocesses one stored mail.
func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (RunResult, error) {
	row, err := s.db.MustImportByProviderMessageID(provider, messageID)
	if err != nil {
		return RunResult{}, err
	}
	return s.ProcessImport(row)
}

// ProcessPending works through fetched mail in arrival order. A mail that
// fails is marked and skipped; the batch continues.
func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListImportsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}

	processed := 0
	anomalies := 0
	for _, row := range pending {
		if provider != "" && row.Provider != provider {
			continue
		}
		result, err := s.ProcessImport(row)
		if err != nil {
			s.log.Error().Err(err).Int("importId", row.ID).Msg("import processing failed")
			_ = s.db.UpdateImportStatus(row.ID, "failed")
			continue
		}
		processed++
		anomalies += result.Anomalies
	}
	return processed, anomalies, nil
}

// ProcessImport classifies a stored mail's attachments and routes them:
// capture exports refresh the capture cache, booking exports refresh the
// booking cache, and a dispute export is reconciled against the stored
// baseline snapshot.
func (s *ProcessingService) ProcessImport(row internal.ImportRow) (RunResult, error) {
	raw, err := os.ReadFile(row.RawRef)
	if err != nil {
		return RunResult{}, err
	}

	subject, attachments, err := ExtractAttachments(raw)
	if err != nil {
		return RunResult{}, err
	}
	if subject == "" {
		subject = row.Subject
	}

	detect := DetectReportMail(subject, AttachmentNames(attachments))
	if !detect.IsReport {
		_ = s.db.UpdateImportStatus(row.ID, "skipped")
		return RunResult{}, nil
	}

	var disputeTable *decode.Table
	disputeSource := ""
	for _, att := range attachments {
		if !decode.Decodable(att.Name) {
			continue
		}
		table, err := decode.FromBytes(att.Name, att.Content)
		if err != nil {
			s.log.Warn().Err(err).Str("attachment", att.Name).Msg("attachment decode failed")
			continue
		}

		switch ClassifyExport(att.Name, table, s.schemas) {
		case internal.ReportCapture:
			captures := NormalizeCapture(table, s.schemas.Capture, s.log)
			if len(captures) > 0 {
				if err := s.db.ReplaceCaptures(att.Name, captures); err != nil {
					return RunResult{}, err
				}
			}
		case internal.ReportBooking:
			bookings := NormalizeBooking(table, s.schemas.Booking, s.log)
			if err := s.db.UpsertBookings(bookings); err != nil {
				return RunResult{}, err
			}
		case internal.ReportDispute:
			if disputeTable == nil {
				disputeTable = table
				disputeSource = att.Name
			}
		}
	}

	if disputeTable == nil {
		_ = s.db.UpdateImportStatus(row.ID, "processed")
		return RunResult{}, nil
	}

	result, err := s.reconcileDispute(row, disputeTable, disputeSource)
	if err != nil {
		return RunResult{}, err
	}
	_ = s.db.UpdateImportStatus(row.ID, "processed")
	return result, nil
}

func (s *ProcessingService) reconcileDispute(row internal.ImportRow, table *decode.Table, source string) (RunResult, error) {
	updated := NormalizeLedger(table, s.schemas.Ledger)

	baselineRefs, baselineSource, err := s.db.CurrentSnapshotRefs()
	if err != nil {
		return RunResult{}, err
	}
	if baselineRefs == nil {
		// First export on record: it becomes the baseline. Reporting every
		// row as an anomaly would drown the ops team.
		if _, err := s.db.SaveSnapshot(source, CaseRefs(updated)); err != nil {
			return RunResult{}, err
		}
		s.log.Info().Str("source", source).Int("refs", len(updated)).Msg("baseline snapshot established")
		return RunResult{}, nil
	}

	captures, err := s.db.ListCaptures()
	if err != nil {
		return RunResult{}, err
	}
	bookings, err := s.db.ListBookings()
	if err != nil {
		return RunResult{}, err
	}

	anomalies := FindAnomaliesAgainst(RefSet(baselineRefs), updated)
	enriched := Enrich(anomalies, captures, bookings, s.cfg.AmountTolerance)

	result, err := s.persistRun(&row.ID, baselineSource, source, enriched)
	if err != nil {
		return RunResult{}, err
	}

	if _, err := s.db.SaveSnapshot(source, CaseRefs(updated)); err != nil {
		return RunResult{}, err
	}
	return result, nil
}

func (s *ProcessingService) persistRun(importID *int, baselineSource, updatedSource string, enriched []internal.LedgerRecord) (RunResult, error) {
	captureMatched := 0
	bookingMatched := 0
	for _, rec := range enriched {
		if rec.CaptureStatus == internal.StatusMatch {
			captureMatched++
		}
		if rec.BookingStatus == internal.StatusMatch {
			bookingMatched++
		}
	}

	run := internal.RunRow{
		TraceID:        uuid.NewString(),
		ImportID:       importID,
		BaselineSource: baselineSource,
		UpdatedSource:  updatedSource,
		Anomalies:      len(enriched),
		CaptureMatched: captureMatched,
		BookingMatched: bookingMatched,
	}
	runID, err := s.db.InsertRun(run)
	if err != nil {
		return RunResult{}, err
	}
	if err := s.db.InsertAnomalies(runID, enriched); err != nil {
		return RunResult{}, err
	}

	return RunResult{
		RunID:          runID,
		TraceID:        run.TraceID,
		Anomalies:      run.Anomalies,
		CaptureMatched: captureMatched,
		BookingMatched: bookingMatched,
	}, nil
}

// baselineRefs resolves the baseline for a file-driven run: an explicit
// export when given, the stored snapshot otherwise.
func (s *ProcessingService) baselineRefs(baselinePath string) ([]string, string, error) {
	if baselinePath == "" {
		refs, source, err := s.db.CurrentSnapshotRefs()
		if err != nil {
			return nil, "", err
		}
		if refs == nil {
			return nil, "", fmt.Errorf("no baseline export given and no snapshot recorded")
		}
		return refs, source, nil
	}

	table, err := decode.Load(baselinePath)
	if err != nil {
		return nil, "", fmt.Errorf("decode baseline export: %w", err)
	}
	baseline := NormalizeLedger(table, s.schemas.Ledger)
	refs := make([]string, 0, len(baseline))
	for _, rec := range baseline {
		refs = append(refs, rec.CaseReference)
	}
	return refs, baselinePath, nil
}

func (s *ProcessingService) captureRecords(capturePath string) ([]internal.CaptureRecord, error) {
	if capturePath == "" {
		return s.db.ListCaptures()
	}
	table, err := decode.Load(capturePath)
	if err != nil {
		return nil, fmt.Errorf("decode capture export: %w", err)
	}
	captures := NormalizeCapture(table, s.schemas.Capture, s.log)
	if len(captures) > 0 {
		if err := s.db.ReplaceCaptures(capturePath, captures); err != nil {
			return nil, err
		}
	}
	return captures, nil
}

func (s *ProcessingService) bookingRecords(bookingPath string) ([]internal.BookingRecord, error) {
	if bookingPath == "" {
		return s.db.ListBookings()
	}
	table, err := decode.Load(bookingPath)
	if err != nil {
		return nil, fmt.Errorf("decode booking export: %w", err)
	}
	return NormalizeBooking(table, s.schemas.Booking, s.log), nil
}
