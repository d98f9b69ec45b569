// =============================================================================
// X12 EDI Validator - History Command
// =============================================================================
//
// This file defines the 'history' command, which reads the run history the
// process and watch commands record in the SQLite database.
//
// COMMAND USAGE:
//   edivalidator history                 # Most recent runs
//   edivalidator history --limit 50
//   edivalidator history --rules         # How often each rule fired
//   edivalidator history RUN_ID          # Findings of one run
//   edivalidator history RUN_ID --delete
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/x12-edi-validator/internal/store"
)

var (
	historyLimit  int
	historyRules  bool
	historyDelete bool
)

// historyCmd represents the 'history' command.
var historyCmd = &cobra.Command{
	Use:   "history [RUN_ID]",
	Short: "Show recorded validation runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to list, 0 for all")
	historyCmd.Flags().BoolVar(&historyRules, "rules", false, "Count findings by rule across all runs")
	historyCmd.Flags().BoolVar(&historyDelete, "delete", false, "Delete the given run")
}

// runHistory lists runs or shows one run.
func runHistory(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		id := args[0]
		if historyDelete {
			if err := s.DeleteRun(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Deleted run %s\n", id)
			return nil
		}
		return printRun(cmd, s, id)
	}
	if historyDelete {
		return errors.New("--delete requires a run ID")
	}

	if historyRules {
		counts, err := s.RuleCounts(ctx)
		if err != nil {
			return err
		}
		printRuleCounts(out, counts)
		return nil
	}

	runs, err := s.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-19s  %-21s  %6s  %6s  %s\n", "RUN", "STARTED", "STATUS", "ERRORS", "WARN", "FILE")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-19s  %-21s  %6d  %6d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.ErrorCount, r.WarningCount, r.File)
	}
	return nil
}

// printRun shows one run and its findings.
func printRun(cmd *cobra.Command, s *store.Store, id string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "=== Run %s ===\n", run.ID)
	fmt.Fprintf(out, "File:         %s\n", run.File)
	fmt.Fprintf(out, "Started:      %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Duration:     %s\n", run.Duration)
	fmt.Fprintf(out, "Status:       %s\n", run.Status)
	if run.Failure != "" {
		fmt.Fprintf(out, "Failure:      %s\n", run.Failure)
		return nil
	}
	fmt.Fprintf(out, "Version:      %s (%s)\n", run.Version, run.Level)
	if run.PartnerID != "" {
		fmt.Fprintf(out, "Partner:      %s\n", run.PartnerID)
	}
	fmt.Fprintf(out, "Report:       %s\n", run.ReportPath)
	fmt.Fprintf(out, "Transactions: %d, segments: %d\n", run.TransactionCount, run.SegmentCount)

	diags, err := s.Diagnostics(ctx, id)
	if err != nil {
		return err
	}
	if len(diags) == 0 {
		fmt.Fprintln(out, "\nNo findings.")
		return nil
	}

	fmt.Fprintf(out, "\nFindings (%d error(s), %d warning(s)):\n", run.ErrorCount, run.WarningCount)
	for _, d := range diags {
		txn := d.Transaction
		if txn == "" {
			txn = "envelope"
		}
		fmt.Fprintf(out, "  %d. [%s] %s\n", d.Seq+1, txn, d.ValidationResult.String())
	}
	return nil
}

// printRuleCounts prints rule counts, most frequent first.
func printRuleCounts(w io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "No findings recorded.")
		return
	}

	rules := make([]string, 0, len(counts))
	for rule := range counts {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		if counts[rules[i]] != counts[rules[j]] {
			return counts[rules[i]] > counts[rules[j]]
		}
		return rules[i] < rules[j]
	})

	for _, rule := range rules {
		fmt.Fprintf(w, "%-20s %d\n", rule, counts[rule])
	}
}
