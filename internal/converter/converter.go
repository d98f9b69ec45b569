// =============================================================================
// X12 EDI Validator - Converter Module
// =============================================================================
//
// This module runs the processing pipeline for a single EDI file, from
// reading the raw interchange to writing its XML validation report.
//
// PROCESSING PIPELINE:
//   1. Read the input file
//   2. Parse and validate the interchange
//   3. Generate the XML validation report
//   4. Write the report to the output directory
//   5. Record the run in the history database
//   6. Archive the processed input file
//
// CONCURRENCY:
//   A Converter holds no per-file state. The process and watch commands
//   share one instance across their worker goroutines.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/x12-edi-validator/internal/logger"
	"github.com/ginjaninja78/x12-edi-validator/internal/parser"
	"github.com/ginjaninja78/x12-edi-validator/internal/store"
	"github.com/ginjaninja78/x12-edi-validator/internal/xmlwriter"
	"github.com/ginjaninja78/x12-edi-validator/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// RunID identifies the run in the history database and the report.
	RunID string

	// OutputFile is the path to the generated XML report.
	// This is empty if the file could not be parsed or on a dry run.
	OutputFile string

	// ArchivePath is where the input file was moved after processing.
	ArchivePath string

	// Success is true when the document parsed and its status is not failed.
	Success bool

	// Error is set when the file could not be read, parsed or written.
	Error error

	// Parse is the parser outcome, nil when Error is a parse failure.
	Parse *parser.Result

	// ErrorEntries are the error findings formatted for the error log.
	ErrorEntries []utils.ErrorLogEntry

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	Segments           int
	Transactions       int
	ValidationErrors   int
	ValidationWarnings int
	ProcessingTime     time.Duration
}

// Status returns the parse status, or "failed" when the file never parsed.
func (r Result) Status() string {
	if r.Parse == nil {
		return string(parser.StatusFailed)
	}
	return string(r.Parse.Status)
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter processes EDI files into validation reports.
type Converter struct {
	parser       *parser.Parser
	files        *utils.FileManager
	reportFormat string
	report       xmlwriter.GenerateOptions
	store        *store.Store
	dryRun       bool
	logger       logger.Logger
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter.
//
// PARAMETERS:
//   - p: The configured parser shared by every file.
//   - files: The file manager owning the output and archive directories.
//   - reportNameFormat: The report file name pattern, e.g.
//     "{original}_{timestamp}.xml". See utils.GenerateOutputFileName.
//
// RETURNS:
//   - A new Converter that logs through the package logger and keeps no
//     history until WithStore is called.
func New(p *parser.Parser, files *utils.FileManager, reportNameFormat string) *Converter {
	return &Converter{
		parser:       p,
		files:        files,
		reportFormat: reportNameFormat,
		report:       xmlwriter.DefaultGenerateOptions(),
		logger:       logger.Default(),
	}
}

// WithStore records every run in s.
func (c *Converter) WithStore(s *store.Store) *Converter {
	c.store = s
	return c
}

// WithLogger replaces the logger.
func (c *Converter) WithLogger(l logger.Logger) *Converter {
	c.logger = l
	return c
}

// WithDryRun parses and validates without writing reports, recording runs
// or archiving input files.
func (c *Converter) WithDryRun(dryRun bool) *Converter {
	c.dryRun = dryRun
	return c
}

// WithReportOptions changes how reports are rendered.
func (c *Converter) WithReportOptions(opts xmlwriter.GenerateOptions) *Converter {
	c.report = opts
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for one file.
//
// RETURNS:
//   - A Result describing the outcome. Failures are reported in
//     Result.Error rather than aborting the caller's batch.
func (c *Converter) Run(ctx context.Context, filePath string) Result {
	startTime := time.Now()
	run := store.NewRun(filepath.Base(filePath))
	result := Result{FilePath: filePath, RunID: run.ID}

	finish := func() Result {
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	c.logger.Info("Processing file: %s", filePath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input file: %w", err)
		return finish()
	}

	// =========================================================================
	// STEP 2: PARSE AND VALIDATE
	// =========================================================================

	parsed, err := c.parser.Parse(string(content))
	if err != nil {
		result.Error = fmt.Errorf("failed to parse %s: %w", filepath.Base(filePath), err)
		c.logger.Error("%v", result.Error)
		run.Failure = err.Error()
		run.Duration = time.Since(startTime)
		c.record(ctx, run, nil)
		return finish()
	}

	result.Parse = parsed
	result.Success = parsed.Status != parser.StatusFailed
	result.Stats.Segments = parsed.Metrics.SegmentsProcessed
	result.Stats.Transactions = len(parsed.Transactions)
	result.Stats.ValidationErrors = parsed.Summary.ErrorCount
	result.Stats.ValidationWarnings = parsed.Summary.WarningCount
	result.ErrorEntries = errorEntries(filepath.Base(filePath), parsed)

	c.logger.Debug("Validated %d transaction(s): %d error(s), %d warning(s)",
		result.Stats.Transactions, result.Stats.ValidationErrors, result.Stats.ValidationWarnings)

	// =========================================================================
	// STEP 3: GENERATE REPORT
	// =========================================================================

	report, err := xmlwriter.GenerateWithOptions(parsed, xmlwriter.ReportSource{
		RunID: run.ID,
		File:  filepath.Base(filePath),
	}, c.report)
	if err != nil {
		result.Error = fmt.Errorf("failed to generate report: %w", err)
		result.Success = false
		return finish()
	}

	if c.dryRun {
		c.logger.Info("[DRY RUN] Would write %d byte report for %s", len(report), filePath)
		return finish()
	}

	// =========================================================================
	// STEP 4: WRITE REPORT
	// =========================================================================

	outputPath, err := c.writeReport(filePath, run.ID, parsed.Status, report)
	if err != nil {
		result.Error = err
		result.Success = false
		return finish()
	}
	result.OutputFile = outputPath
	run.ReportPath = outputPath

	// =========================================================================
	// STEP 5: RECORD HISTORY
	// =========================================================================

	run.Duration = time.Since(startTime)
	c.record(ctx, run, parsed)

	// =========================================================================
	// STEP 6: ARCHIVE INPUT
	// =========================================================================

	archivePath, err := c.files.ArchiveInputFile(filePath)
	if err != nil {
		c.logger.Warn("Failed to archive %s: %v", filePath, err)
	} else {
		result.ArchivePath = archivePath
	}

	return finish()
}

// writeReport names and writes the report file.
func (c *Converter) writeReport(filePath, runID string, status parser.Status, report []byte) (string, error) {
	name := utils.GenerateOutputFileName(c.reportFormat, map[string]string{
		"original": utils.OriginalName(filePath),
		"status":   string(status),
		"run":      runID,
	})
	outputPath := filepath.Join(c.files.OutputDir, name)

	if err := os.MkdirAll(c.files.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, report, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	c.logger.Debug("Wrote report: %s", outputPath)
	return outputPath, nil
}

// record stores the run. History is best effort and never fails a file.
func (c *Converter) record(ctx context.Context, run store.Run, parsed *parser.Result) {
	if c.store == nil || c.dryRun {
		return
	}
	if err := c.store.RecordRun(ctx, run, parsed); err != nil {
		c.logger.Warn("Failed to record run %s: %v", run.ID, err)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// errorEntries converts the error findings of a parse into log entries.
func errorEntries(fileName string, parsed *parser.Result) []utils.ErrorLogEntry {
	errs := parsed.Errors()
	if len(errs) == 0 {
		return nil
	}

	now := time.Now()
	entries := make([]utils.ErrorLogEntry, 0, len(errs))
	for _, d := range errs {
		entry := utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     fileName,
			ErrorType:    d.Rule,
			ErrorMessage: d.Message,
			Transaction:  d.Transaction,
			SegmentID:    d.SegmentID,
			Value:        d.Value,
		}
		if d.SegmentPosition != nil {
			entry.SegmentPosition = *d.SegmentPosition + 1
		}
		if d.ElementPosition != nil {
			entry.ElementPosition = *d.ElementPosition
		}
		entries = append(entries, entry)
	}
	return entries
}
