package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/x12-edi-validator/internal/schema"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// =============================================================================
// CATALOG EXPORT
// =============================================================================

// ExportCatalog writes the element dictionary and every transaction set of
// one release to a workbook.
//
// SHEETS:
//   - Elements: one row per element ID with its code list for the release
//   - One sheet per transaction type (e.g. "850"): segment usage,
//     dependencies and element layout
func ExportCatalog(catalog *schema.Catalog, version x12.Version, path string) error {
	types := catalog.TransactionTypes(version)
	if len(types) == 0 {
		return fmt.Errorf("catalog has no transaction sets for version %s", version)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Elements"); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	rows := [][]interface{}{{"ID", "Name", "Data Type", "Min Length", "Max Length", "Valid Codes"}}
	for _, id := range catalog.ElementIDs() {
		spec, _ := catalog.ElementByID(id)
		rows = append(rows, []interface{}{
			spec.ID, spec.Name, string(spec.DataType), spec.MinLength, spec.MaxLength,
			strings.Join(spec.CodesFor(version), ", "),
		})
	}
	if err := writeRows(f, "Elements", rows); err != nil {
		return err
	}

	for _, txnType := range types {
		t, _ := catalog.Transaction(txnType, version)
		if _, err := f.NewSheet(txnType); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", txnType, err)
		}

		rows := [][]interface{}{{"Position", "Segment", "Name", "Requirement", "Max Use", "Level", "Dependencies", "Elements"}}
		for i, s := range t.Segments {
			maxUse := ">1"
			if s.MaxUse > 0 {
				maxUse = strconv.Itoa(s.MaxUse)
			}
			rows = append(rows, []interface{}{
				i + 1, s.ID, s.Name, string(s.Requirement), maxUse, s.Level.String(),
				formatDependencies(s.Dependencies), formatLayout(catalog, version, s.ID),
			})
		}
		if err := writeRows(f, txnType, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteAgreements writes agreements in the layout ParseAgreements reads,
// one sheet per agreement.
func WriteAgreements(agreements []*schema.TradingPartnerAgreement, path string) error {
	if len(agreements) == 0 {
		return fmt.Errorf("no agreements to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, a := range agreements {
		sheet := sheetName(a, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to create sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		rows := [][]interface{}{
			{"Partner ID", a.PartnerID},
			{"Transaction Set", a.TransactionSet},
			{"Versions", a.Versions},
			{"Name", a.Name},
			{},
			customizationHeaders,
		}
		for _, c := range a.Customizations {
			rows = append(rows, []interface{}{
				c.Segment, blankZero(c.ElementPosition), string(c.Kind), strings.Join(c.Codes, ", "),
				blankZero(c.MinLength), blankZero(c.MaxLength), c.Description,
			})
		}
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cellName, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatDependencies(deps []schema.Dependency) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = fmt.Sprintf("%s %s", d.Kind, d.Segment)
	}
	return strings.Join(parts, "; ")
}

// formatLayout renders a segment layout as "BEG01=353(M) BEG02=92(M) ...".
func formatLayout(catalog *schema.Catalog, version x12.Version, segmentID string) string {
	layout, ok := catalog.Layout(version, segmentID)
	if !ok {
		return ""
	}
	parts := make([]string, len(layout.Elements))
	for i, ref := range layout.Elements {
		parts[i] = fmt.Sprintf("%s%02d=%d(%s)", segmentID, i+1, ref.ElementID, ref.Requirement)
	}
	return strings.Join(parts, " ")
}

// sheetName builds a unique sheet name. Excel limits names to 31
// characters.
func sheetName(a *schema.TradingPartnerAgreement, index int) string {
	name := fmt.Sprintf("%d %s %s", index+1, a.PartnerID, a.TransactionSet)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func blankZero(n int) interface{} {
	if n == 0 {
		return ""
	}
	return n
}
