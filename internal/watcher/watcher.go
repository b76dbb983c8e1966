package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"disputeflow/internal/config"
	"disputeflow/internal/connectors"
	gmailconnector "disputeflow/internal/connectors/gmail"
	imapconnector "disputeflow/internal/connectors/imap"
	"disputeflow/internal/pipeline"
	"disputeflow/internal/storage"
)

// Service polls a mailbox for dispute report messages, runs the
// reconciliation pipeline over anything new and optionally exports
// the resulting runs to XLSX.
type Service struct {
	db      *storage.DB
	cfg     config.Config
	schemas pipeline.Schemas
	log     zerolog.Logger
}

func NewService(db *storage.DB, cfg config.Config, schemas pipeline.Schemas, log zerolog.Logger) *Service {
	return &Service{db: db, cfg: cfg, schemas: schemas, log: log}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			s.log.Error().Err(err).Msg("watcher cycle error")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailWatchIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailWatchProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailWatchLabel, s.cfg.MailWatchQuery, s.cfg.MailWatchFetchMax)
	if err != nil {
		return err
	}

	processor := pipeline.NewProcessingService(s.db, s.cfg, s.schemas, s.log)
	processed, skipped, err := processor.ProcessPending(s.cfg.MailWatchProcessBatch, provider)
	if err != nil {
		return err
	}

	if s.cfg.MailWatchAutoExport {
		if err := s.exportRuns(); err != nil {
			return err
		}
	}

	s.log.Info().
		Str("provider", provider).
		Int("fetched", fetchResult.Fetched).
		Int("stored", fetchResult.Stored).
		Int("processed", processed).
		Int("skipped", skipped).
		Msg("watcher cycle done")
	_ = ctx
	return nil
}

func (s *Service) exportRuns() error {
	runs, err := s.db.ListRuns(200, true)
	if err != nil {
		return err
	}

	for _, run := range runs {
		records, err := s.db.GetRunAnomalies(run.ID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			_ = s.db.MarkRunExported(run.ID)
			continue
		}
		filename := fmt.Sprintf("run_%d_%s.xlsx", run.ID, sanitizeTraceID(run.TraceID))
		outputPath := filepath.Join(s.cfg.OutputDir, "watcher", filename)
		if err := pipeline.ExportAnomaliesToXLSX(records, outputPath); err != nil {
			return err
		}
		if err := s.db.MarkRunExported(run.ID); err != nil {
			return err
		}
		s.log.Info().Int("run", run.ID).Str("path", outputPath).Int("anomalies", len(records)).Msg("run exported")
	}
	return nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported watcher provider: %s", provider)
	}
}

func sanitizeTraceID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}
