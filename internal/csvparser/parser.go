// =============================================================================
// X12 EDI Validator - Code List CSV Parser
// =============================================================================
//
// This module reads code lists that extend the element dictionary. Code
// lists are maintained by business users in spreadsheets and exported as
// CSV, so the reader is forgiving about headers, blank lines and case.
//
// FILE FORMAT:
//   element_id,code[,version][,description]
//   353,00,,Original
//   353,ZZ,5010,Mutually Defined
//
//   - The header row is optional and detected by a non-numeric first cell
//   - Lines starting with '#' are comments
//   - An empty version applies the code to every release
//
// CUSTOMIZATION:
//   - Add columns to Entry and map them in parseRow
//   - Apply entries differently by changing CodeList.Apply
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ginjaninja78/x12-edi-validator/internal/schema"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// =============================================================================
// CODE LIST STRUCTURE
// =============================================================================

// Entry is one code of one element.
type Entry struct {
	// ElementID is the X12 data element number, e.g. 353.
	ElementID int

	// Code is the value added to the element's valid codes.
	Code string

	// Version limits the code to one release. VersionUnknown means all.
	Version x12.Version

	Description string

	// Line is the 1-based line in the source file, for error reporting.
	Line int
}

// CodeList is a parsed code list file.
type CodeList struct {
	// SourceFile is the path of the CSV file, empty for in-memory input.
	SourceFile string

	Entries []Entry
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a code list CSV file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//
// RETURNS:
//   - The parsed code list.
//   - An error naming the file and line of the first bad row.
func Parse(filePath string) (*CodeList, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	list, err := ParseReader(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	list.SourceFile = filePath
	return list, nil
}

// ParseReader reads a code list from any reader.
func ParseReader(r io.Reader) (*CodeList, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader)

	list := &CodeList{}
	first := true
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := csvReader.FieldPos(0)

		if isRowEmpty(row) {
			continue
		}
		if first {
			first = false
			if isHeaderRow(row) {
				continue
			}
		}

		entry, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entry.Line = line
		list.Entries = append(list.Entries, entry)
	}
	return list, nil
}

// LoadDir parses every *.csv file in a directory in file name order. A
// missing directory yields no code lists.
func LoadDir(dir string) ([]*CodeList, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list code lists: %w", err)
	}
	sort.Strings(matches)

	lists := make([]*CodeList, 0, len(matches))
	for _, path := range matches {
		list, err := Parse(path)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// configureReader sets up the CSV reader for code list files.
func configureReader(reader *csv.Reader) {
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
}

// isHeaderRow reports whether the first cell is a column name rather than
// an element number.
func isHeaderRow(row []string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(row[0]))
	return err != nil
}

// parseRow converts one CSV row into an Entry.
func parseRow(row []string) (Entry, error) {
	if len(row) < 2 {
		return Entry{}, fmt.Errorf("expected at least 2 columns (element_id,code), got %d", len(row))
	}

	id, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil || id <= 0 {
		return Entry{}, fmt.Errorf("invalid element ID %q", row[0])
	}

	code := strings.TrimSpace(row[1])
	if code == "" {
		return Entry{}, fmt.Errorf("element %d has an empty code", id)
	}

	entry := Entry{ElementID: id, Code: code}
	if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
		if entry.Version, err = x12.ParseVersion(row[2]); err != nil {
			return Entry{}, err
		}
	}
	if len(row) > 3 {
		entry.Description = strings.TrimSpace(row[3])
	}
	return entry, nil
}

// isRowEmpty checks if all cells in a row are empty.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// Apply merges every entry into a catalog builder. Unknown element IDs
// surface as builder errors from Build.
func (cl *CodeList) Apply(b *schema.Builder) {
	for _, e := range cl.Entries {
		b.ExtendCodes(e.ElementID, e.Version, e.Code)
	}
}

// ElementIDs returns the distinct element IDs in the list, sorted.
func (cl *CodeList) ElementIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, e := range cl.Entries {
		if !seen[e.ElementID] {
			seen[e.ElementID] = true
			ids = append(ids, e.ElementID)
		}
	}
	sort.Ints(ids)
	return ids
}

// CodesFor returns the codes listed for an element, in file order.
func (cl *CodeList) CodesFor(elementID int) []string {
	var codes []string
	for _, e := range cl.Entries {
		if e.ElementID == elementID {
			codes = append(codes, e.Code)
		}
	}
	return codes
}
