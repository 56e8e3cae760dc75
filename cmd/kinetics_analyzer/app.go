package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/user/variflex_go/internal/analysis"
	"github.com/user/variflex_go/internal/config"
	"github.com/user/variflex_go/internal/logging"
	"github.com/user/variflex_go/internal/parser"
	"github.com/user/variflex_go/internal/report"
)

// App holds the Wails runtime context and the analyzer configuration.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	emit   func(event string, data ...interface{})
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	a := &App{cfg: cfg, logger: logger}
	a.emit = func(event string, data ...interface{}) {
		if a.ctx != nil {
			runtime.EventsEmit(a.ctx, event, data...)
		}
	}
	return a
}

// Startup is called when the app starts. The context is saved
// so we can call the runtime methods.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	runtime.WindowSetTitle(a.ctx, "VariFlex Kinetics Analyzer")
}

// SelectReport opens a file dialog for the eigenvalue report.
func (a *App) SelectReport() (string, error) {
	return runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select VariFlex eigenvalue report",
		Filters: []runtime.FileFilter{
			{DisplayName: "VariFlex output (*.out;*.txt;*.gz)", Pattern: "*.out;*.txt;*.gz"},
			{DisplayName: "All files", Pattern: "*"},
		},
	})
}

// SelectPDF opens a save dialog for the PDF report.
func (a *App) SelectPDF() (string, error) {
	return runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Save k(T,P) report",
		DefaultFilename: "kinetics_report.pdf",
		Filters:         []runtime.FileFilter{{DisplayName: "PDF (*.pdf)", Pattern: "*.pdf"}},
	})
}

func (a *App) sendStatus(message string) {
	a.emit("statusUpdate", message)
	a.logger.Info(message)
}

func (a *App) fail(message string) {
	a.emit("statusUpdate", message)
	a.logger.Error(message)
	a.emit("generationComplete", false, message)
}

// HandleGenerateReport starts report generation in the background and returns
// immediately. Progress and the outcome are reported through the
// statusUpdate and generationComplete events.
func (a *App) HandleGenerateReport(reportPath string, pdfPath string) (string, error) {
	if reportPath == "" || pdfPath == "" {
		return "", fmt.Errorf("both a report and a PDF path are required")
	}
	a.emit("clearLog")
	a.sendStatus(fmt.Sprintf("Request: report=[%s], PDF=[%s]", reportPath, pdfPath))

	go a.generate(reportPath, pdfPath)
	return "Report generation started in background.", nil
}

func (a *App) generate(reportPath, pdfPath string) {
	defer func() {
		if r := recover(); r != nil {
			a.fail(fmt.Sprintf("PANIC recovered: %v", r))
		}
	}()
	a.emit("generationStart")

	a.sendStatus(fmt.Sprintf("Parsing: %s", reportPath))
	scanner := parser.NewScanner(append(a.cfg.ParserOptions(), parser.WithLogger(a.logger))...)
	if err := scanner.ScanFile(reportPath); err != nil {
		a.fail(fmt.Sprintf("Error parsing report: %v", err))
		return
	}
	ds := scanner.Dataset()
	a.sendStatus(fmt.Sprintf("Parsed %d conditions at %d temperatures.", ds.Len(), len(ds.Temperatures())))
	if len(ds.Warnings) > 0 {
		a.sendStatus("Parsing warnings:")
		for _, w := range ds.Warnings {
			a.sendStatus(fmt.Sprintf("- %s", w))
		}
	}
	if ds.Len() == 0 {
		a.fail("No conditions parsed, cannot analyze.")
		return
	}

	a.sendStatus(fmt.Sprintf("Analyzing (significance threshold %g)...", a.cfg.Analysis.SignificanceThreshold))
	results, err := analysis.AnalyzeDataset(ds, a.cfg.AnalysisOptions())
	if err != nil {
		a.fail(fmt.Sprintf("Error analyzing data: %v", err))
		return
	}
	logging.WithRun(a.logger, results.RunID).Info("analysis complete", "conditions", len(results.Results))
	a.emit("statusUpdate", fmt.Sprintf("Analysis complete (run %s). %d condition results.", results.RunID, len(results.Results)))
	if len(results.AnalysisErrors) > 0 {
		a.sendStatus("Analysis warnings:")
		for _, e := range results.AnalysisErrors {
			a.sendStatus(fmt.Sprintf("- %s", e))
		}
	}

	a.sendStatus("Generating plots...")
	figures, problems := report.GeneratePlots(ds, results, a.cfg.Output.PopulationHeatmaps)
	for _, p := range problems {
		a.sendStatus(fmt.Sprintf("Plot skipped: %s", p))
	}
	a.sendStatus(fmt.Sprintf("Plot generation complete (%d figures).", len(figures)))

	a.sendStatus(fmt.Sprintf("Generating PDF: %s...", pdfPath))
	if err := report.BuildPDFReport(pdfPath, results, figures); err != nil {
		a.fail(fmt.Sprintf("Error generating PDF report: %v", err))
		return
	}
	msg := fmt.Sprintf("PDF report successfully generated: %s", pdfPath)
	a.sendStatus(msg)
	a.emit("generationComplete", true, msg)
}
