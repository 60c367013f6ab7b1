// labelctl exports the request-audit log to an XLSX workbook.
//
//	labelctl -db audit.db -out usage.xlsx [-from 2026-01-01] [-to 2026-01-31]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/bharatsetu/label-auditor/internal/audit"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	dbPath := flag.String("db", "", "path to the audit database")
	outPath := flag.String("out", "usage.xlsx", "output workbook path")
	fromStr := flag.String("from", "", "start date (YYYY-MM-DD, inclusive)")
	toStr := flag.String("to", "", "end date (YYYY-MM-DD, inclusive)")
	flag.Parse()

	if *dbPath == "" {
		logger.Error("usage: labelctl -db <path> -out <file.xlsx> [-from YYYY-MM-DD] [-to YYYY-MM-DD]")
		os.Exit(2)
	}

	from, to, err := parseWindow(*fromStr, *toStr)
	if err != nil {
		logger.Error("invalid date window", "error", err)
		os.Exit(2)
	}

	store, err := audit.Open(*dbPath, logger)
	if err != nil {
		logger.Error("opening audit store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	entries, err := store.List(ctx, from, to)
	if err != nil {
		logger.Error("listing audit entries", "error", err)
		os.Exit(1)
	}

	b, err := audit.ExportUsageXLSX(entries)
	if err != nil {
		logger.Error("building workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, b, 0o644); err != nil {
		logger.Error("writing workbook", "error", err)
		os.Exit(1)
	}

	logger.Info("export complete", "out", *outPath, "entries", len(entries))
}

// parseWindow converts date flags into inclusive UTC bounds; the end date
// extends to the last instant of that day.
func parseWindow(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return nil, nil, err
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}
