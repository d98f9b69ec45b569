// =============================================================================
// X12 EDI Validator - Catalog Command
// =============================================================================
//
// This file defines the 'catalog' command, which describes the schema
// catalog the validator runs with: built-in schemas plus the configured
// code lists and partner agreements.
//
// COMMAND USAGE:
//   edivalidator catalog                           # Releases, transaction sets, partners
//   edivalidator catalog --version 5010            # Transaction sets of one release
//   edivalidator catalog --element 353             # One dictionary entry
//   edivalidator catalog --version 4010 --export schemas.xlsx
//   edivalidator catalog --export-agreements agreements.xlsx
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/x12-edi-validator/internal/schema"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
	"github.com/ginjaninja78/x12-edi-validator/internal/xlsxparser"
)

var (
	catalogVersion          string
	catalogElement          int
	catalogExport           string
	catalogExportAgreements string
)

// catalogCmd represents the 'catalog' command.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Describe the schema catalog",
	Long: `Catalog lists the X12 releases, transaction sets, dictionary elements and
trading partners known to the validator. It can also export the schemas of
one release, or the loaded partner agreements, to an XLSX workbook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCatalog(cmd)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringVar(&catalogVersion, "version", "", "X12 release to describe, e.g. 4010")
	catalogCmd.Flags().IntVar(&catalogElement, "element", 0, "Describe one dictionary element by ID")
	catalogCmd.Flags().StringVar(&catalogExport, "export", "", "Write the release's schemas to this XLSX file (requires --version)")
	catalogCmd.Flags().StringVar(&catalogExportAgreements, "export-agreements", "", "Write the loaded partner agreements to this XLSX file")
}

// runCatalog prints or exports the catalog.
func runCatalog(cmd *cobra.Command) error {
	cfg, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return err
	}

	var version x12.Version
	if catalogVersion != "" {
		if version, err = x12.ParseVersion(catalogVersion); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	if catalogExport != "" {
		if version == x12.VersionUnknown {
			return fmt.Errorf("--export requires --version")
		}
		if err := xlsxparser.ExportCatalog(catalog, version, catalogExport); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Exported %s schemas to %s\n", version, catalogExport)
		return nil
	}

	if catalogExportAgreements != "" {
		agreements, err := loadAgreements(cfg.AgreementsDir)
		if err != nil {
			return err
		}
		if len(agreements) == 0 {
			return fmt.Errorf("no partner agreements found in %s", cfg.AgreementsDir)
		}
		if err := xlsxparser.WriteAgreements(agreements, catalogExportAgreements); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Exported %d agreement(s) to %s\n", len(agreements), catalogExportAgreements)
		return nil
	}

	if catalogElement > 0 {
		return printElement(out, catalog, catalogElement, version)
	}

	versions := catalog.Versions()
	if version != x12.VersionUnknown {
		versions = []x12.Version{version}
	}
	printCatalog(out, catalog, versions)
	return nil
}

// printCatalog lists the transaction sets of each release and the partners.
func printCatalog(w io.Writer, catalog *schema.Catalog, versions []x12.Version) {
	fmt.Fprintln(w, "=== Schema Catalog ===")
	for _, v := range versions {
		types := catalog.TransactionTypes(v)
		fmt.Fprintf(w, "\n%s (%d transaction set(s), %d segment layout(s))\n", v, len(types), len(catalog.SegmentIDs(v)))
		for _, t := range types {
			ts, ok := catalog.Transaction(t, v)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %-4s %-40s %d segment(s)\n", t, ts.Name, len(ts.Segments))
		}
	}

	fmt.Fprintf(w, "\nDictionary: %d element(s)\n", len(catalog.ElementIDs()))

	partners := catalog.Partners()
	if len(partners) == 0 {
		fmt.Fprintln(w, "Partners:   none")
		return
	}
	fmt.Fprintf(w, "Partners:   %s\n", strings.Join(partners, ", "))
}

// printElement describes one dictionary entry. With a release, only that
// release's code list is shown.
func printElement(w io.Writer, catalog *schema.Catalog, id int, version x12.Version) error {
	spec, ok := catalog.ElementByID(id)
	if !ok {
		return fmt.Errorf("unknown element %d", id)
	}

	fmt.Fprintf(w, "Element %d: %s\n", spec.ID, spec.Name)
	if spec.Description != "" {
		fmt.Fprintf(w, "  %s\n", spec.Description)
	}
	fmt.Fprintf(w, "  Type:   %s\n", spec.DataType)
	fmt.Fprintf(w, "  Length: %d-%d\n", spec.MinLength, spec.MaxLength)

	versions := catalog.Versions()
	if version != x12.VersionUnknown {
		versions = []x12.Version{version}
	}
	for _, v := range versions {
		codes := spec.CodesFor(v)
		if len(codes) == 0 {
			continue
		}
		fmt.Fprintf(w, "  Codes (%s): %s\n", v, strings.Join(codes, " "))
	}
	return nil
}
