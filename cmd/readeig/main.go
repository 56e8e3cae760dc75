// Command readeig reads VariFlex eigenvalue reports and prints a summary of
// the (temperature, pressure) conditions found. It can also export the rate
// tables as CSV and render a PDF report.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/user/variflex_go/internal/analysis"
	"github.com/user/variflex_go/internal/config"
	"github.com/user/variflex_go/internal/export"
	"github.com/user/variflex_go/internal/logging"
	"github.com/user/variflex_go/internal/parser"
	"github.com/user/variflex_go/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("readeig", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	pdfPath := fs.String("pdf", "", "write a PDF report to this path")
	csvPath := fs.String("csv", "", "write the rate tables as CSV to this path")
	quiet := fs.Bool("quiet", false, "do not print the condition summary")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: readeig [-config file] [-pdf out.pdf] [-csv out.csv] [-quiet] report...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "readeig: %v\n", err)
		return 1
	}
	if *pdfPath != "" {
		cfg.Output.PDF = *pdfPath
	}
	if *csvPath != "" {
		cfg.Output.CSV = *csvPath
	}

	logger := logging.Setup(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err := process(cfg, fs.Args(), stdout, *quiet, logger); err != nil {
		logger.Error("readeig failed", "error", err)
		return 1
	}
	return 0
}

func process(cfg *config.Config, patterns []string, stdout io.Writer, quiet bool, logger *slog.Logger) error {
	paths, err := parser.ExpandPatterns(patterns)
	if err != nil {
		return err
	}

	opts := append(cfg.ParserOptions(), parser.WithLogger(logger))
	scanner := parser.NewScanner(opts...)
	for _, path := range paths {
		logger.Info("reading report", "path", path)
		if err := scanner.ScanFile(path); err != nil {
			return err
		}
	}
	ds := scanner.Dataset()
	for _, w := range ds.Warnings {
		logger.Warn(w)
	}
	logger.Info("reports read", "files", len(paths), "temperatures", len(ds.Temperatures()), "conditions", ds.Len())

	if !quiet {
		if err := printSummary(stdout, ds); err != nil {
			return err
		}
	}

	if cfg.Output.CSV != "" {
		if err := writeCSV(cfg, ds, logger); err != nil {
			return err
		}
	}

	if cfg.Output.PDF != "" {
		results, err := analysis.AnalyzeDataset(ds, cfg.AnalysisOptions())
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		runLogger := logging.WithRun(logger, results.RunID)
		for _, msg := range results.AnalysisErrors {
			runLogger.Warn(msg)
		}
		figures, problems := report.GeneratePlots(ds, results, cfg.Output.PopulationHeatmaps)
		for _, msg := range problems {
			runLogger.Warn(msg)
		}
		if err := report.BuildPDFReport(cfg.Output.PDF, results, figures); err != nil {
			return fmt.Errorf("failed to write PDF report: %w", err)
		}
		runLogger.Info("PDF report written", "path", cfg.Output.PDF, "figures", len(figures))
	}
	return nil
}

func printSummary(w io.Writer, ds *parser.Dataset) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "T (K)\tP (Torr)\tEigenvalues\tWells\tWell stages\tProduct stages")
	for _, cond := range ds.Conditions() {
		if !cond.Complete {
			fmt.Fprintf(tw, "%g\t%g\t-\t-\t-\t-\n", cond.Temperature, cond.Pressure)
			continue
		}
		fmt.Fprintf(tw, "%g\t%g\t%d\t%d\t%d\t%d\n",
			cond.Temperature, cond.Pressure,
			len(cond.Eigenvalues), cond.NumWells(),
			len(cond.WellRateConstants), len(cond.ProductRateConstants))
	}
	return tw.Flush()
}

func writeCSV(cfg *config.Config, ds *parser.Dataset, logger *slog.Logger) error {
	f, err := os.Create(cfg.Output.CSV)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	rows, err := export.WriteRateCSV(f, ds, cfg.CSVConfig())
	if err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file: %w", err)
	}
	logger.Info("CSV written", "path", cfg.Output.CSV, "rows", rows)
	return nil
}
