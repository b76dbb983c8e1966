package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"disputeflow/internal/bookings"
	"disputeflow/internal/config"
	"disputeflow/internal/connectors"
	gmailconnector "disputeflow/internal/connectors/gmail"
	imapconnector "disputeflow/internal/connectors/imap"
	"disputeflow/internal/decode"
	"disputeflow/internal/logger"
	"disputeflow/internal/pipeline"
	"disputeflow/internal/storage"
	"disputeflow/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logger.New()

	schemas, err := pipeline.LoadSchemas(cfg.AliasConfigPath)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "reconcile":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		baseline := fs.String("baseline", "", "baseline dispute export (default: stored snapshot)")
		updated := fs.String("updated", "", "updated dispute export")
		capture := fs.String("capture", "", "capture statement (default: cached)")
		booking := fs.String("booking", "", "booking export (default: cached)")
		out := fs.String("out", "", "write anomalies to this xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*updated) == "" {
			must(fmt.Errorf("--updated is required"))
		}
		processor := pipeline.NewProcessingService(db, cfg, schemas, log)
		result, err := processor.ReconcileFiles(*baseline, *updated, *capture, *booking)
		must(err)
		fmt.Printf("reconcile done trace=%s anomalies=%d captureMatched=%d bookingMatched=%d\n",
			result.TraceID, result.Anomalies, result.CaptureMatched, result.BookingMatched)
		if strings.TrimSpace(*out) != "" {
			records, err := db.GetRunAnomalies(int(result.RunID))
			must(err)
			must(pipeline.ExportAnomaliesToXLSX(records, *out))
			must(db.MarkRunExported(int(result.RunID)))
			fmt.Printf("exported %d anomalies to %s\n", len(records), *out)
		}
	case "snapshot:set":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "dispute export to record as baseline")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		table, err := decode.Load(*input)
		must(err)
		records := pipeline.NormalizeLedger(table, schemas.Ledger)
		refs := pipeline.CaseRefs(records)
		_, err = db.SaveSnapshot(*input, refs)
		must(err)
		fmt.Printf("snapshot set source=%s refs=%d\n", *input, len(refs))
	case "bookings:initial-sync":
		svc := bookings.NewSyncService(db, cfg)
		count, err := svc.InitialSync(context.Background())
		must(err)
		fmt.Printf("initial sync complete: %d bookings\n", count)
	case "bookings:incremental-sync":
		svc := bookings.NewSyncService(db, cfg)
		count, err := svc.IncrementalSync(context.Background())
		must(err)
		fmt.Printf("incremental sync complete: %d bookings\n", count)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "gmail", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		query := fs.String("query", "", "provider search query")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *query, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "gmail", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg, schemas, log)
		if strings.TrimSpace(*messageID) != "" {
			result, err := processor.ProcessByProviderMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed mail trace=%s anomalies=%d\n", result.TraceID, result.Anomalies)
			return
		}
		processed, anomalies, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending mails=%d anomalies=%d\n", processed, anomalies)
	case "mail:watch":
		s := watcher.NewService(db, cfg, schemas, log)
		must(s.Run(context.Background()))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int("runId", 0, "internal run id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *runID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--runId and --out are required"))
		}
		records, err := db.GetRunAnomalies(*runID)
		must(err)
		if len(records) == 0 {
			must(fmt.Errorf("no anomalies for runId=%d", *runID))
		}
		must(pipeline.ExportAnomaliesToXLSX(records, *out))
		must(db.MarkRunExported(*runID))
		fmt.Printf("exported %d anomalies to %s\n", len(records), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: disputeflow <command>")
	fmt.Println("commands:")
	fmt.Println("  reconcile --updated=... [--baseline=...] [--capture=...] [--booking=...] [--out=...xlsx]")
	fmt.Println("  snapshot:set --input=...")
	fmt.Println("  bookings:initial-sync")
	fmt.Println("  bookings:incremental-sync")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX [--query=...] --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:watch")
	fmt.Println("  export:xlsx --runId=1 --out=./out/anomalies.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
