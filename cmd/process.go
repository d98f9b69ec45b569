// =============================================================================
// X12 EDI Validator - Process Command
// =============================================================================
//
// This file defines the 'process' command, the batch entry point. It
// validates every EDI file in the input directory and writes one XML
// report per file.
//
// COMMAND USAGE:
//   edivalidator process [flags]
//
// FLAGS:
//   --dry-run         : Validate without writing reports, history or archives
//   --file            : Process one file instead of the input directory
//   --pattern         : Glob pattern for input files (default: EDI extensions)
//   --level           : Override parsing.validation_level
//   --partner         : Override parsing.trading_partner_id
//   --no-history      : Do not record runs in the history database
//   --clean-archives  : Remove archived inputs older than this duration
//
// PROCESSING PIPELINE:
//   1. Load configuration, code lists and partner agreements
//   2. Discover EDI files in the input directory
//   3. For each file (concurrently, at most max_concurrency at once):
//      a. Parse the interchange
//      b. Validate every transaction
//      c. Write the XML report
//      d. Record the run
//      e. Archive the input file
//   4. Write the error log and processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/x12-edi-validator/internal/config"
	"github.com/ginjaninja78/x12-edi-validator/internal/converter"
	"github.com/ginjaninja78/x12-edi-validator/internal/logger"
	"github.com/ginjaninja78/x12-edi-validator/internal/store"
	"github.com/ginjaninja78/x12-edi-validator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun validates without writing anything.
var dryRun bool

// filePath is a single file to process instead of the input directory.
var filePath string

// filePattern filters the input directory.
var filePattern string

// levelOverride replaces parsing.validation_level.
var levelOverride string

// partnerOverride replaces parsing.trading_partner_id.
var partnerOverride string

// noHistory disables the history database.
var noHistory bool

// cleanArchives is the maximum age of archived files; zero keeps all.
var cleanArchives time.Duration

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Validate EDI files and write XML reports",
	Long: `The process command scans the input directory for X12 files, validates each
one at the configured level, and writes an XML validation report to the
output directory.

Processing is done concurrently, bounded by max_concurrency. Each file is
processed independently, and errors in one file do not affect the others.

When a file parses:
  - The XML report is placed in the output directory
  - The run is recorded in the history database
  - The original file is moved to the archive directory

When a file cannot be parsed:
  - The failure is recorded in the history database
  - The original file remains in the input directory
  - Processing continues for other files`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Validate without writing reports, recording history or archiving",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Path to a single file to process",
	)

	processCmd.Flags().StringVar(
		&filePattern,
		"pattern",
		"",
		"Glob pattern for input files, e.g. \"*.x12\"",
	)

	processCmd.Flags().StringVar(
		&levelOverride,
		"level",
		"",
		"Validation level: basic, standard, strict or complete",
	)

	processCmd.Flags().StringVar(
		&partnerOverride,
		"partner",
		"",
		"Trading partner ID whose agreements apply",
	)

	processCmd.Flags().BoolVar(
		&noHistory,
		"no-history",
		false,
		"Do not record runs in the history database",
	)

	processCmd.Flags().DurationVar(
		&cleanArchives,
		"clean-archives",
		0,
		"Remove archived files older than this duration, e.g. 720h",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the batch.
func runProcess(cmd *cobra.Command) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fmt.Println("=== X12 EDI Validator ===")
	fmt.Println("Loading configuration...")

	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	conv, cleanup, err := newConverter(cfg, parserOverrides{level: levelOverride, partner: partnerOverride})
	if err != nil {
		return err
	}
	defer cleanup()

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	fmt.Println("Discovering input files...")

	files := fileManager(cfg)
	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		inputFiles, err = files.DiscoverInputFiles(filePattern)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No EDI files found in the input directory.")
		return nil
	}

	fmt.Printf("Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	fmt.Println("Processing files...")

	results := processFiles(cmd.Context(), conv, inputFiles, cfg.MaxConcurrency)

	// =========================================================================
	// STEP 4: COLLECT RESULTS AND WRITE LOGS
	// =========================================================================

	summary := summarize(results, startTime)
	printSummary(summary, len(inputFiles))

	if !dryRun {
		writeLogs(results, summary, cfg.OutputDir)
	}

	if cleanArchives > 0 && !dryRun {
		removed, err := utils.CleanOldArchives(cfg.ArchiveDir, cleanArchives)
		if err != nil {
			logger.Warn("Failed to clean archives: %v", err)
		} else {
			fmt.Printf("Removed %d archived file(s) older than %s\n", removed, cleanArchives)
		}
	}

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// fileManager builds the file manager for the configured directories.
func fileManager(cfg *config.MainConfig) *utils.FileManager {
	return utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.ArchiveDir)
}

// newConverter wires the parser, file manager and history store into a
// converter. The returned cleanup closes the store.
func newConverter(cfg *config.MainConfig, overrides parserOverrides) (*converter.Converter, func(), error) {
	noop := func() {}

	p, err := newParser(cfg, overrides)
	if err != nil {
		return nil, noop, err
	}

	conv := converter.New(p, fileManager(cfg), cfg.ReportNameFormat).WithDryRun(dryRun)
	if dryRun || noHistory || cfg.DatabasePath == "" {
		return conv, noop, nil
	}

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open history database: %w", err)
	}
	return conv.WithStore(s), func() { s.Close() }, nil
}

// processFiles runs the converter over files with at most concurrency
// files in flight. Results come back in input order.
func processFiles(ctx context.Context, conv *converter.Converter, files []string, concurrency int) []converter.Result {
	if concurrency < 1 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	results := make(chan indexedResult, len(files))

	for i, file := range files {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results <- indexedResult{index: index, result: conv.Run(ctx, path)}
		}(i, file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]converter.Result, len(files))
	for r := range results {
		ordered[r.index] = r.result
		printResult(r.result)
	}
	return ordered
}

type indexedResult struct {
	index  int
	result converter.Result
}

// printResult prints the one-line outcome of a file.
func printResult(result converter.Result) {
	name := filepath.Base(result.FilePath)
	switch {
	case result.Error != nil:
		fmt.Printf("  ✗ %s: %v\n", name, result.Error)
	case !result.Success:
		fmt.Printf("  ✗ %s: %s, %d error(s) -> %s\n", name, result.Status(), result.Stats.ValidationErrors, result.OutputFile)
	case result.OutputFile == "":
		fmt.Printf("  ✓ %s: %s (dry run)\n", name, result.Status())
	default:
		fmt.Printf("  ✓ %s: %s -> %s\n", name, result.Status(), result.OutputFile)
	}
}

// summarize builds the processing summary from the per-file results.
func summarize(results []converter.Result, startTime time.Time) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		EndTime:    time.Now(),
		TotalFiles: len(results),
	}

	for _, r := range results {
		summary.TotalSegments += r.Stats.Segments
		summary.TotalTransactions += r.Stats.Transactions
		summary.ValidationErrors += r.Stats.ValidationErrors
		summary.ValidationWarnings += r.Stats.ValidationWarnings

		if r.Error != nil || !r.Success {
			summary.FailedFiles++
			msg := fmt.Sprintf("status %s with %d error(s)", r.Status(), r.Stats.ValidationErrors)
			errorType := "validation"
			if r.Error != nil {
				msg = r.Error.Error()
				errorType = "processing"
			}
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    r.FilePath,
				ErrorMessage: msg,
				ErrorType:    errorType,
			})
			continue
		}

		summary.SuccessfulFiles++
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:    r.FilePath,
			OutputFile:   r.OutputFile,
			ArchivePath:  r.ArchivePath,
			Status:       r.Status(),
			Segments:     r.Stats.Segments,
			Transactions: r.Stats.Transactions,
			Errors:       r.Stats.ValidationErrors,
			Warnings:     r.Stats.ValidationWarnings,
			ProcessTime:  r.Stats.ProcessingTime,
		})
	}
	return summary
}

// printSummary prints the end-of-batch totals.
func printSummary(summary utils.ProcessingSummary, total int) {
	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", total)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Failed:          %d\n", summary.FailedFiles)
	fmt.Printf("Transactions:    %d\n", summary.TotalTransactions)
	fmt.Printf("Errors:          %d\n", summary.ValidationErrors)
	fmt.Printf("Warnings:        %d\n", summary.ValidationWarnings)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))
}

// writeLogs writes the error log and the processing summary to the output
// directory.
func writeLogs(results []converter.Result, summary utils.ProcessingSummary, outputDir string) {
	var entries []utils.ErrorLogEntry
	for _, r := range results {
		if r.Error != nil && r.Parse == nil {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    summary.EndTime,
				FileName:     filepath.Base(r.FilePath),
				ErrorType:    "processing",
				ErrorMessage: r.Error.Error(),
			})
		}
		entries = append(entries, r.ErrorEntries...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].FileName < entries[j].FileName
	})

	if path, err := utils.WriteErrorLog(entries, outputDir); err != nil {
		logger.Warn("Failed to write error log: %v", err)
	} else if path != "" {
		fmt.Printf("\nErrors have been logged to %s\n", path)
	}

	if path, err := utils.WriteSummaryLog(summary, outputDir); err != nil {
		logger.Warn("Failed to write summary log: %v", err)
	} else {
		fmt.Printf("Summary written to %s\n", path)
	}
}
