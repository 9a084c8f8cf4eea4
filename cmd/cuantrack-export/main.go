package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cuantrack/internal/advisor"
	"cuantrack/internal/cli"
	"cuantrack/internal/config"
	"cuantrack/internal/log"
	"cuantrack/internal/services"
	"cuantrack/internal/shopping"
	"cuantrack/internal/worker"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches a subcommand and returns the process exit code, so deferred
// cleanup in the commands always runs.
func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "export":
		return runExport(args[1:])
	case "import":
		return runImport(args[1:])
	case "sheets":
		return runSheets(args[1:])
	case "summary":
		return runSummary()
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println("cuantrack export tool")
	fmt.Println("\nUsage:")
	fmt.Println("  cuantrack-export <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  export    Write the shopping export document to a JSON file")
	fmt.Println("  import    Replace the shopping state with an export document")
	fmt.Println("  sheets    Push the transaction ledger to Google Sheets")
	fmt.Println("  summary   Print the local spending summary")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cuantrack-export <command> -h' for more information on a command.")
}

// open loads configuration and the saved state the server would see. The
// returned func closes the backend and the broker connection.
func open(ctx context.Context) (*log.Logger, *config.Config, *services.Tracker, func(), error) {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	snapshots := cli.InitBackend(ctx, logger, cfg)
	var notifier services.Notifier
	amqpClient := cli.InitNotifier(logger, cfg)
	if amqpClient != nil {
		notifier = amqpClient
	}

	closeAll := func() {
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := snapshots.Cleanup(); err != nil {
			logger.Error("Failed to close snapshot backend", log.FieldError, err)
		}
	}

	tracker := services.NewTracker(snapshots.Store, notifier, logger)
	if err := tracker.Open(ctx); err != nil {
		logger.Error("Failed to load saved state", log.FieldError, err)
		closeAll()
		return nil, nil, nil, nil, err
	}
	return logger, cfg, tracker, closeAll, nil
}

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "cuantrack-export.json", "destination file, - for stdout")
	_ = fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	logger, _, tracker, closeAll, err := open(ctx)
	if err != nil {
		return 1
	}
	defer closeAll()

	data, err := tracker.Export()
	if err != nil {
		logger.Error("Export failed", log.FieldError, err)
		return 1
	}
	if *out == "-" {
		_, _ = os.Stdout.Write(append(data, '\n'))
		return 0
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("Failed to write export", log.FieldError, err, "path", *out)
		return 1
	}
	logger.Info("Export written", log.FieldOperation, log.OpExport, "path", *out,
		"lists", len(tracker.Shopping().Lists()))
	return 0
}

func runImport(args []string) int {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "export document to import")
	dryRun := fs.Bool("dry-run", false, "validate the document without saving it")
	_ = fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "Error: -in is required")
		return 1
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *dryRun {
		st, err := shopping.DecodeState(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid document: %v\n", err)
			return 1
		}
		fmt.Printf("Valid export document: %d lists, %d inventory items, %d templates, %d price entries\n",
			len(st.Lists), len(st.Inventory), len(st.Templates), len(st.PriceHistory))
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	logger, _, tracker, closeAll, err := open(ctx)
	if err != nil {
		return 1
	}
	defer closeAll()

	if err := tracker.Import(ctx, data); err != nil {
		logger.Error("Import failed", log.FieldError, err, "path", *in)
		return 1
	}
	logger.Info("Import complete", log.FieldOperation, log.OpImport, "path", *in,
		"lists", len(tracker.Shopping().Lists()))
	return 0
}

func runSheets(args []string) int {
	fs := flag.NewFlagSet("sheets", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "report what would be exported without contacting Google")
	_ = fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	logger, cfg, tracker, closeAll, err := open(ctx)
	if err != nil {
		return 1
	}
	defer closeAll()

	if *dryRun {
		fmt.Printf("Would export %d transactions and %d budgets\n",
			len(tracker.Ledger().Transactions()), len(tracker.Ledger().Budgets()))
		return 0
	}
	if !cfg.SheetsExportEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is not set")
		return 1
	}

	exporter, err := cli.InitExporter(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets export", log.FieldError, err)
		return 1
	}
	if err := worker.NewSyncWorker(tracker, tracker.Ledger(), exporter, logger).ExportLedger(ctx); err != nil {
		logger.Error("Sheets export failed", log.FieldError, err)
		return 1
	}
	return 0
}

func runSummary() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, _, tracker, closeAll, err := open(ctx)
	if err != nil {
		return 1
	}
	defer closeAll()

	fmt.Println(advisor.LocalSummary(tracker.Ledger().Transactions()))
	return 0
}
