// =============================================================================
// X12 EDI Validator - XLSX Agreement Workbooks
// =============================================================================
//
// Trading partner agreements are usually negotiated in spreadsheets. This
// module reads agreement workbooks and exports the schema catalog so
// business users can review it in Excel.
//
// AGREEMENT WORKBOOK LAYOUT:
//   Each sheet is one agreement. Sheets whose name starts with "_" are
//   skipped. The sheet starts with key/value rows, followed by a header row
//   whose first cell is "Segment", followed by one customization per row.
//
//   | Column A        | Column B | Column C             | Column D | Column E   | Column F   | Column G    |
//   |-----------------|----------|----------------------|----------|------------|------------|-------------|
//   | Partner ID      | ACME     |                      |          |            |            |             |
//   | Transaction Set | 850      |                      |          |            |            |             |
//   | Versions        | >= 5.1.0 |                      |          |            |            |             |
//   | Segment         | Element  | Kind                 | Codes    | Min Length | Max Length | Description |
//   | BEG             | 1        | Restrict Valid Codes | 00, 05   |            |            |             |
//   | REF             |          | Make Mandatory       |          |            |            |             |
//
// CUSTOMIZATION:
//   - Modify SheetColumns to match a different column order
//   - Add metadata keys in applyMetadata
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/x12-edi-validator/internal/schema"
)

// =============================================================================
// COLUMN CONFIGURATION
// =============================================================================

// SheetColumns defines which column (0-based) holds each customization
// field.
type SheetColumns struct {
	SegmentColumn     int
	ElementColumn     int
	KindColumn        int
	CodesColumn       int
	MinLengthColumn   int
	MaxLengthColumn   int
	DescriptionColumn int
}

// DefaultSheetColumns returns the default column configuration.
func DefaultSheetColumns() SheetColumns {
	return SheetColumns{
		SegmentColumn:     0, // Column A
		ElementColumn:     1, // Column B
		KindColumn:        2, // Column C
		CodesColumn:       3, // Column D
		MinLengthColumn:   4, // Column E
		MaxLengthColumn:   5, // Column F
		DescriptionColumn: 6, // Column G
	}
}

var customizationHeaders = []interface{}{"Segment", "Element", "Kind", "Codes", "Min Length", "Max Length", "Description"}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseAgreements reads every agreement sheet of a workbook.
//
// PARAMETERS:
//   - workbookPath: The path to the XLSX file.
//
// RETURNS:
//   - The agreements in sheet order, each validated on its own.
//   - An error naming the sheet and row of the first problem.
func ParseAgreements(workbookPath string) ([]*schema.TradingPartnerAgreement, error) {
	return ParseAgreementsWithConfig(workbookPath, DefaultSheetColumns())
}

// ParseAgreementsWithConfig reads agreement sheets with a custom column
// configuration.
func ParseAgreementsWithConfig(workbookPath string, columns SheetColumns) ([]*schema.TradingPartnerAgreement, error) {
	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var agreements []*schema.TradingPartnerAgreement
	for _, sheetName := range f.GetSheetList() {
		if strings.HasPrefix(sheetName, "_") {
			continue
		}

		agreement, err := parseSheet(f, sheetName, columns)
		if err != nil {
			return nil, fmt.Errorf("error parsing sheet '%s': %w", sheetName, err)
		}
		agreements = append(agreements, agreement)
	}

	return agreements, nil
}

// parseSheet parses a single agreement sheet from an open workbook.
func parseSheet(f *excelize.File, sheetName string, columns SheetColumns) (*schema.TradingPartnerAgreement, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	agreement := &schema.TradingPartnerAgreement{Name: sheetName}

	inCustomizations := false
	for i, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		if !inCustomizations {
			key := strings.ToLower(strings.TrimSpace(cell(row, 0)))
			if key == "segment" {
				inCustomizations = true
				continue
			}
			if err := applyMetadata(agreement, key, strings.TrimSpace(cell(row, 1))); err != nil {
				return nil, fmt.Errorf("error parsing row %d: %w", i+1, err)
			}
			continue
		}

		customization, err := parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", i+1, err)
		}
		agreement.Customizations = append(agreement.Customizations, customization)
	}

	if err := agreement.Validate(); err != nil {
		return nil, err
	}
	return agreement, nil
}

// applyMetadata sets one agreement field from a key/value row.
func applyMetadata(a *schema.TradingPartnerAgreement, key, value string) error {
	switch key {
	case "partner id", "partner_id", "partner":
		a.PartnerID = value
	case "transaction set", "transaction_set", "transaction":
		a.TransactionSet = value
	case "versions", "version":
		a.Versions = value
	case "name":
		if value != "" {
			a.Name = value
		}
	default:
		return fmt.Errorf("unknown agreement field %q", key)
	}
	return nil
}

// parseRow extracts a SchemaCustomization from a single row.
func parseRow(row []string, columns SheetColumns) (schema.SchemaCustomization, error) {
	var c schema.SchemaCustomization

	c.Segment = strings.ToUpper(strings.TrimSpace(cell(row, columns.SegmentColumn)))

	kind, err := schema.ParseCustomizationKind(cell(row, columns.KindColumn))
	if err != nil {
		return c, err
	}
	c.Kind = kind

	if c.ElementPosition, err = intCell(row, columns.ElementColumn, "element"); err != nil {
		return c, err
	}
	if c.MinLength, err = intCell(row, columns.MinLengthColumn, "min length"); err != nil {
		return c, err
	}
	if c.MaxLength, err = intCell(row, columns.MaxLengthColumn, "max length"); err != nil {
		return c, err
	}

	c.Codes = splitCodes(cell(row, columns.CodesColumn))
	c.Description = strings.TrimSpace(cell(row, columns.DescriptionColumn))

	return c, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

func intCell(row []string, index int, name string) (int, error) {
	value := strings.TrimSpace(cell(row, index))
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return n, nil
}

// splitCodes accepts codes separated by commas, semicolons or spaces.
func splitCodes(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// isRowEmpty checks if all cells in a row are empty.
func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
