// =============================================================================
// X12 EDI Validator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it, and it owns the setup they share: configuration,
// logging and the schema catalog.
//
// COBRA CLI STRUCTURE:
//   rootCmd (edivalidator)
//   ├── processCmd  (edivalidator process)
//   ├── validateCmd (edivalidator validate FILE)
//   ├── watchCmd    (edivalidator watch)
//   ├── catalogCmd  (edivalidator catalog)
//   ├── historyCmd  (edivalidator history [RUN_ID])
//   └── versionCmd  (edivalidator version)
//
// CATALOG SOURCES:
//   1. The built-in 4010/5010/6010 dictionary and transaction schemas
//   2. Code list CSV files in code_lists_dir
//   3. Trading partner agreements (YAML, TOML or XLSX) in agreements_dir
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/x12-edi-validator/internal/config"
	"github.com/ginjaninja78/x12-edi-validator/internal/csvparser"
	"github.com/ginjaninja78/x12-edi-validator/internal/logger"
	"github.com/ginjaninja78/x12-edi-validator/internal/parser"
	"github.com/ginjaninja78/x12-edi-validator/internal/schema"
	"github.com/ginjaninja78/x12-edi-validator/internal/xlsxparser"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "edivalidator",
	Short: "X12 EDI Validator - Parse and validate ANSI X12 interchanges",
	Long: `X12 EDI Validator parses ANSI X12 interchanges (ISA/GS/ST envelopes),
validates every transaction against the 4010, 5010 and 6010 schemas, and
writes an XML validation report per file.

Key Features:
  - Separator discovery from the ISA header
  - Four validation levels: basic, standard, strict and complete
  - Trading partner agreements in YAML, TOML or XLSX
  - Concurrent batch processing with archival and run history

Example Usage:
  edivalidator process                     # Validate every file in the input directory
  edivalidator validate orders.edi         # Validate one file and print the findings
  edivalidator catalog --version 5010      # List supported transaction sets
  edivalidator history                     # Show recent runs`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig reads the configuration file and configures logging. A
// missing file at the default location falls back to the built-in
// defaults so that single-file commands work without any setup.
//
// RETURNS:
//   - The configuration
//   - A close function for the log file, always safe to call
//   - An error if the file is invalid or the log file cannot be opened
func loadConfig(cmd *cobra.Command) (*config.MainConfig, func(), error) {
	noop := func() {}

	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			return nil, noop, fmt.Errorf("failed to load main config: %w", err)
		}
		cfg = config.Default()
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, noop, err
	}
	logger.SetLevel(level)
	logger.SetVerbose(verbose)

	if cfg.LogFile == "" {
		return cfg, noop, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, noop, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, logFile))

	return cfg, func() {
		logger.SetOutput(os.Stderr)
		logFile.Close()
	}, nil
}

// buildCatalog assembles the schema catalog from the built-in schemas,
// code list files and partner agreements named by the configuration.
func buildCatalog(cfg *config.MainConfig) (*schema.Catalog, error) {
	builder := schema.NewStandardBuilder()

	codeLists, err := csvparser.LoadDir(cfg.CodeListsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load code lists: %w", err)
	}
	for _, cl := range codeLists {
		logger.Debug("Code list %s: %d entries", cl.SourceFile, len(cl.Entries))
		cl.Apply(builder)
	}

	agreements, err := loadAgreements(cfg.AgreementsDir)
	if err != nil {
		return nil, err
	}
	for _, a := range agreements {
		logger.Debug("Agreement %s for partner %s (%s)", a.Name, a.PartnerID, a.TransactionSet)
		builder.AddAgreement(a)
	}

	catalog, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema catalog: %w", err)
	}
	return catalog, nil
}

// loadAgreements reads YAML and TOML agreement files, then XLSX
// workbooks, from dir.
func loadAgreements(dir string) ([]*schema.TradingPartnerAgreement, error) {
	agreements, err := config.LoadPartnerAgreements(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load partner agreements: %w", err)
	}
	if dir == "" {
		return agreements, nil
	}

	workbooks, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil {
		return nil, fmt.Errorf("failed to list agreement workbooks: %w", err)
	}
	sort.Strings(workbooks)
	for _, path := range workbooks {
		if strings.HasPrefix(filepath.Base(path), "~$") {
			continue
		}
		parsed, err := xlsxparser.ParseAgreements(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load agreement workbook %s: %w", path, err)
		}
		agreements = append(agreements, parsed...)
	}
	return agreements, nil
}

// parserOverrides are the command-line flags that replace config values.
type parserOverrides struct {
	level   string
	partner string
	version string
	strict  bool
}

// newParser builds the catalog and a parser configured from cfg with the
// flag overrides applied.
func newParser(cfg *config.MainConfig, overrides parserOverrides) (*parser.Parser, error) {
	if overrides.level != "" {
		cfg.Parsing.ValidationLevel = overrides.level
	}
	if overrides.partner != "" {
		cfg.Parsing.TradingPartnerID = overrides.partner
	}
	if overrides.version != "" {
		cfg.Parsing.Version = overrides.version
	}
	if overrides.strict {
		cfg.Parsing.Strict = true
	}

	opts, err := cfg.ParserOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid parsing configuration: %w", err)
	}

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}

	p, err := parser.New(catalog, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}
