// =============================================================================
// X12 EDI Validator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which validates one file and
// prints the findings instead of writing a report to the output directory.
// Nothing is archived or recorded.
//
// COMMAND USAGE:
//   edivalidator validate FILE [flags]
//   cat orders.edi | edivalidator validate -
//
// FLAGS:
//   --format           : text (default), yaml or xml
//   --level            : Override parsing.validation_level
//   --partner          : Override parsing.trading_partner_id
//   --version-override : Force the X12 release instead of reading ISA12
//   --strict           : Reject segments outside any transaction
//   --element          : Also list every occurrence of an element ID
//
// EXIT STATUS:
//   Non-zero when the file cannot be parsed or its status is failed.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/x12-edi-validator/internal/parser"
	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/xmlwriter"
)

// errValidationFailed signals a failed status after the findings were
// printed.
var errValidationFailed = errors.New("validation failed")

var (
	validateFormat  string
	validateLevel   string
	validatePartner string
	validateVersion string
	validateStrict  bool
	validateElement int
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Validate one EDI file and print the findings",
	Long: `Validate parses one X12 file, validates it at the configured level and
prints the findings. Use "-" to read from standard input.

Output formats:
  text  One numbered line per finding plus transaction summaries
  yaml  The full result as YAML
  xml   The same XML report the process command writes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "Output format: text, yaml or xml")
	validateCmd.Flags().StringVar(&validateLevel, "level", "", "Validation level: basic, standard, strict or complete")
	validateCmd.Flags().StringVar(&validatePartner, "partner", "", "Trading partner ID whose agreements apply")
	validateCmd.Flags().StringVar(&validateVersion, "version-override", "", "Force the X12 release, e.g. 5010")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Reject segments outside any transaction")
	validateCmd.Flags().IntVar(&validateElement, "element", 0, "List every occurrence of this element ID")
}

// runValidate validates one file and prints the outcome.
func runValidate(cmd *cobra.Command, path string) error {
	switch validateFormat {
	case "text", "yaml", "xml":
	default:
		return fmt.Errorf("unknown format %q (expected text, yaml or xml)", validateFormat)
	}

	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := newParser(cfg, parserOverrides{
		level:   validateLevel,
		partner: validatePartner,
		version: validateVersion,
		strict:  validateStrict,
	})
	if err != nil {
		return err
	}

	content, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	result, err := p.Parse(string(content))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	switch validateFormat {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	case "xml":
		report, err := xmlwriter.Generate(result, xmlwriter.ReportSource{File: filepath.Base(path)})
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		if _, err := out.Write(report); err != nil {
			return err
		}
	default:
		printTextResult(out, path, result)
	}

	if result.Status == parser.StatusFailed {
		return errValidationFailed
	}
	return nil
}

// readInput reads a file, or standard input for "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return content, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return content, nil
}

// printTextResult writes the human-readable form of a result.
func printTextResult(w io.Writer, path string, result *parser.Result) {
	fmt.Fprintf(w, "=== %s ===\n", path)
	fmt.Fprintf(w, "Status:       %s\n", result.Status)
	fmt.Fprintf(w, "Version:      %s\n", result.Version)
	fmt.Fprintf(w, "Level:        %s\n", result.Level)
	if result.PartnerID != "" {
		fmt.Fprintf(w, "Partner:      %s\n", result.PartnerID)
	}
	fmt.Fprintf(w, "Segments:     %d\n", result.Metrics.SegmentsProcessed)
	fmt.Fprintf(w, "Elements:     %d\n", result.Metrics.ElementsValidated)
	fmt.Fprintf(w, "Time:         %s parsing, %s validation\n", result.Metrics.ParsingTime, result.Metrics.ValidationTime)

	fmt.Fprintln(w, "\nTransactions:")
	for _, t := range result.Transactions {
		mark := "✓"
		if t.Status == parser.TransactionInvalid {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %s %s: %s, %d error(s), %d warning(s)", mark, t.Type, t.ControlNumber, t.Status, t.ErrorCount, t.WarningCount)
		if t.Business.DocumentID != "" {
			fmt.Fprintf(w, ", document %s", t.Business.DocumentID)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, validation.FormatResults(result.Results()))

	if validateElement > 0 {
		occurrences := result.ElementsByID(validateElement)
		fmt.Fprintf(w, "Element %d: %d occurrence(s)\n", validateElement, len(occurrences))
		for _, o := range occurrences {
			fmt.Fprintf(w, "  %s %s@%d el%02d = %q\n", o.Transaction, o.SegmentID, o.SegmentPosition, o.ElementPosition, o.Value)
		}
	}
}
