// =============================================================================
// X12 EDI Validator - Element Validation
// =============================================================================
//
// This module validates a single element value against its ElementDefinition.
// The checks run in this order:
//   1. Required check: a mandatory element must not be empty
//   2. Empty optional (or conditional) elements pass without further checks
//   3. Length bounds, when declared
//   4. Data type format (numeric, decimal, date, time, ...)
//   5. Valid-code membership, when a code list is declared (an empty
//      closed list rejects every value)
//
// Steps 3, 4 and 5 are independent. A value that is too long, malformed
// and not in the code list produces three findings, not one.
//
// Conditional elements are validated like optional ones here; the segment
// level decides when they become required.
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// ELEMENT DEFINITION
// =============================================================================

// DataType is an X12 element data type.
type DataType string

const (
	TypeAlphanumeric DataType = "AN"
	TypeIdentifier   DataType = "ID"
	TypeNumeric      DataType = "N"
	TypeDecimal      DataType = "R"
	TypeDate         DataType = "DT"
	TypeTime         DataType = "TM"
	TypeBinary       DataType = "B"
)

// ParseDataType accepts the X12 codes, including implied-decimal N0..N9.
func ParseDataType(s string) (DataType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch {
	case s == "AN", s == "ID", s == "R", s == "DT", s == "TM", s == "B":
		return DataType(s), nil
	case s == "N" || (len(s) == 2 && s[0] == 'N' && s[1] >= '0' && s[1] <= '9'):
		return TypeNumeric, nil
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// Requirement is the usage designator of an element or segment.
type Requirement string

const (
	Mandatory   Requirement = "M"
	Optional    Requirement = "O"
	Conditional Requirement = "C"
)

// ParseRequirement accepts "M"/"mandatory", "O"/"optional", "C"/"conditional".
func ParseRequirement(s string) (Requirement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "mandatory", "required":
		return Mandatory, nil
	case "o", "optional":
		return Optional, nil
	case "c", "conditional":
		return Conditional, nil
	}
	return "", fmt.Errorf("unknown requirement %q", s)
}

// ElementDefinition describes one element as used at one position.
type ElementDefinition struct {
	// ID is the stable cross-version element number (e.g. 353).
	ID int `yaml:"id"`

	// Name is the element name (e.g. "Transaction Set Purpose Code").
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	DataType DataType `yaml:"data_type"`

	// MinLength and MaxLength bound the value length; 0 means undeclared.
	MinLength int `yaml:"min_length,omitempty"`
	MaxLength int `yaml:"max_length,omitempty"`

	Requirement Requirement `yaml:"requirement"`

	// ValidCodes, when non-empty, is the closed set of allowed values.
	ValidCodes []string `yaml:"valid_codes,omitempty"`

	// ClosedCodes marks ValidCodes as a closed set even when it is empty,
	// in which case no value is valid.
	ClosedCodes bool `yaml:"closed_codes,omitempty"`
}

// HasCodeList reports whether values are checked against ValidCodes.
func (d *ElementDefinition) HasCodeList() bool {
	return d.ClosedCodes || len(d.ValidCodes) > 0
}

// HasCode reports whether code is in the valid-code set.
func (d *ElementDefinition) HasCode(code string) bool {
	for _, c := range d.ValidCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so overlays never share the code slice.
func (d *ElementDefinition) Clone() *ElementDefinition {
	c := *d
	c.ValidCodes = append([]string(nil), d.ValidCodes...)
	return &c
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateElement validates one value against its definition.
//
// PARAMETERS:
//   - value: The element value (already trimmed by the tokenizer)
//   - def: The definition in effect, including any partner overlay
//   - position: The 1-based element position, used in messages
//
// RETURNS:
//   - Zero or more error findings. The segment fields are left empty for
//     the caller to fill in.
func ValidateElement(value string, def *ElementDefinition, position int) []ValidationResult {
	var results []ValidationResult

	fail := func(rule, problem string) {
		r := NewError(rule, "Element %s (ID: %d) at position %d: '%s' %s", def.Name, def.ID, position, value, problem)
		r.ElementPosition = Position(position)
		r.ElementID = def.ID
		r.Value = value
		results = append(results, r)
	}

	// =========================================================================
	// REQUIRED CHECK
	// =========================================================================

	if value == "" {
		if def.Requirement == Mandatory {
			fail(RuleRequired, "is mandatory but missing")
		}
		return results
	}

	// =========================================================================
	// LENGTH CHECK
	// =========================================================================

	length := valueLength(value, def.DataType)
	if def.MinLength > 0 && length < def.MinLength {
		fail(RuleLength, fmt.Sprintf("is shorter than minimum length %d (actual: %d)", def.MinLength, length))
	}
	if def.MaxLength > 0 && length > def.MaxLength {
		fail(RuleLength, fmt.Sprintf("exceeds maximum length %d (actual: %d)", def.MaxLength, length))
	}

	// =========================================================================
	// DATA TYPE CHECK
	// =========================================================================

	if problem := validateDataType(value, def.DataType); problem != "" {
		fail(RuleDataType, problem)
	}

	// =========================================================================
	// CODE LIST CHECK
	// =========================================================================

	if def.HasCodeList() && !def.HasCode(value) {
		fail(RuleValidCode, "is not a valid code")
	}

	return results
}

// =============================================================================
// DATA TYPE VALIDATORS
// =============================================================================

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// validateDataType returns a problem description, or "" if the value is
// well formed for its type.
func validateDataType(value string, dataType DataType) string {
	switch dataType {
	case TypeNumeric:
		return validateNumeric(value)
	case TypeDecimal:
		return validateDecimal(value)
	case TypeDate:
		return validateDate(value)
	case TypeTime:
		return validateTime(value)
	case TypeAlphanumeric, TypeIdentifier:
		return validatePrintable(value)
	default:
		// Binary and undeclared types have no format.
		return ""
	}
}

func validateNumeric(value string) string {
	if !allDigits(value) {
		return "is not numeric"
	}
	return ""
}

func validateDecimal(value string) string {
	if !decimalPattern.MatchString(value) {
		return "is not a valid decimal number"
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return "is not a valid decimal number"
	}
	return ""
}

// validateDate checks CCYYMMDD. Month and day are range-checked
// independently; the day count of the month is not.
func validateDate(value string) string {
	if len(value) != 8 || !allDigits(value) {
		return "is not a valid CCYYMMDD date"
	}
	month, _ := strconv.Atoi(value[4:6])
	day, _ := strconv.Atoi(value[6:8])
	if month < 1 || month > 12 {
		return "has an invalid month"
	}
	if day < 1 || day > 31 {
		return "has an invalid day"
	}
	return ""
}

// validateTime checks HHMM or HHMMSS.
func validateTime(value string) string {
	if (len(value) != 4 && len(value) != 6) || !allDigits(value) {
		return "is not a valid HHMM[SS] time"
	}
	hour, _ := strconv.Atoi(value[0:2])
	minute, _ := strconv.Atoi(value[2:4])
	if hour > 23 || minute > 59 {
		return "is not a valid HHMM[SS] time"
	}
	if len(value) == 6 {
		if second, _ := strconv.Atoi(value[4:6]); second > 59 {
			return "is not a valid HHMM[SS] time"
		}
	}
	return ""
}

func validatePrintable(value string) string {
	for _, r := range value {
		if !unicode.IsPrint(r) {
			return "contains non-printable characters"
		}
	}
	return ""
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// valueLength counts characters. Numeric types do not count a sign or
// decimal point toward length.
func valueLength(value string, dataType DataType) int {
	if dataType == TypeNumeric || dataType == TypeDecimal {
		n := 0
		for _, r := range value {
			if r != '-' && r != '+' && r != '.' {
				n++
			}
		}
		return n
	}
	return utf8.RuneCountInString(value)
}
