// =============================================================================
// X12 EDI Validator - Element Dictionary
// =============================================================================
//
// The element dictionary is keyed by the stable cross-version element ID.
// Length and data type are the same in every release; code lists may vary
// per release (VersionCodes). A release with no entry in VersionCodes uses
// ValidCodes. A release mapped to an empty list has an open code set.
//
// CUSTOMIZATION:
//   Extra codes can be merged in at build time from CSV code lists
//   (see internal/codelist and Builder.ExtendCodes).
//
// =============================================================================

package schema

import (
	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// ElementSpec is the dictionary entry for one element ID.
type ElementSpec struct {
	ID          int
	Name        string
	Description string
	DataType    validation.DataType
	MinLength   int
	MaxLength   int

	// ValidCodes applies to every release without a VersionCodes entry.
	ValidCodes []string

	// VersionCodes overrides ValidCodes per release.
	VersionCodes map[x12.Version][]string
}

// CodesFor returns the code list in effect for a release.
func (e *ElementSpec) CodesFor(version x12.Version) []string {
	if codes, ok := e.VersionCodes[version]; ok {
		return codes
	}
	return e.ValidCodes
}

// Definition resolves the dictionary entry into a validation definition for one
// release and one usage requirement.
func (e *ElementSpec) Definition(version x12.Version, req validation.Requirement) *validation.ElementDefinition {
	return &validation.ElementDefinition{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		DataType:    e.DataType,
		MinLength:   e.MinLength,
		MaxLength:   e.MaxLength,
		Requirement: req,
		ValidCodes:  append([]string(nil), e.CodesFor(version)...),
	}
}

func (e *ElementSpec) clone() *ElementSpec {
	c := *e
	c.ValidCodes = append([]string(nil), e.ValidCodes...)
	if e.VersionCodes != nil {
		c.VersionCodes = make(map[x12.Version][]string, len(e.VersionCodes))
		for v, codes := range e.VersionCodes {
			c.VersionCodes[v] = append([]string(nil), codes...)
		}
	}
	return &c
}

const (
	tAN = validation.TypeAlphanumeric
	tID = validation.TypeIdentifier
	tN  = validation.TypeNumeric
	tR  = validation.TypeDecimal
	tDT = validation.TypeDate
	tTM = validation.TypeTime
)

// standardElements returns the built-in dictionary.
func standardElements() []*ElementSpec {
	entityCodes4010 := []string{"BT", "BY", "RI", "SE", "ST", "SU"}
	entityCodes5010 := append(append([]string(nil), entityCodes4010...), "VN")
	entityCodes8010 := append(append([]string(nil), entityCodes5010...), "3P")

	return []*ElementSpec{
		// Envelope and control
		{ID: 143, Name: "Transaction Set Identifier Code", Description: "Code uniquely identifying a Transaction Set",
			DataType: tID, MinLength: 3, MaxLength: 3, ValidCodes: []string{"810", "850", "997"}},
		{ID: 329, Name: "Transaction Set Control Number", Description: "Identifying control number assigned by the originator",
			DataType: tAN, MinLength: 4, MaxLength: 9},
		{ID: 1705, Name: "Implementation Convention Reference", DataType: tAN, MinLength: 1, MaxLength: 35},
		{ID: 96, Name: "Number of Included Segments", DataType: tN, MinLength: 1, MaxLength: 10},

		// Purchase order header
		{ID: 353, Name: "Transaction Set Purpose Code", Description: "Code identifying purpose of transaction set",
			DataType: tID, MinLength: 2, MaxLength: 2, ValidCodes: []string{"00", "01", "04", "05"}},
		{ID: 92, Name: "Purchase Order Type Code", Description: "Code specifying the type of Purchase Order",
			DataType: tID, MinLength: 2, MaxLength: 2, ValidCodes: []string{"SA", "KA", "NE", "RL"}},
		{ID: 324, Name: "Purchase Order Number", DataType: tAN, MinLength: 1, MaxLength: 22},
		{ID: 328, Name: "Release Number", DataType: tAN, MinLength: 1, MaxLength: 30},
		{ID: 373, Name: "Date", Description: "Date expressed as CCYYMMDD", DataType: tDT, MinLength: 8, MaxLength: 8},
		{ID: 337, Name: "Time", Description: "Time expressed as HHMM[SS]", DataType: tTM, MinLength: 4, MaxLength: 6},
		{ID: 374, Name: "Date/Time Qualifier", DataType: tID, MinLength: 3, MaxLength: 3,
			ValidCodes: []string{"002", "010", "011", "017", "037", "038", "063", "064"}},

		// Currency
		{ID: 98, Name: "Entity Identifier Code", Description: "Code identifying an organizational entity, a physical location, property or an individual",
			DataType: tID, MinLength: 2, MaxLength: 3, ValidCodes: entityCodes5010,
			VersionCodes: map[x12.Version][]string{
				x12.Version4010: entityCodes4010,
				x12.Version5010: entityCodes5010,
				x12.Version6010: entityCodes5010,
				x12.Version8010: entityCodes8010,
			}},
		{ID: 100, Name: "Currency Code", Description: "Code (Standard ISO) for country in whose currency the charges are specified",
			DataType: tID, MinLength: 3, MaxLength: 3,
			VersionCodes: map[x12.Version][]string{
				x12.Version4010: {"USD", "CAD", "EUR", "GBP", "JPY"},
			}},
		{ID: 280, Name: "Exchange Rate", DataType: tR, MinLength: 4, MaxLength: 10},

		// References and contacts
		{ID: 128, Name: "Reference Identification Qualifier", DataType: tID, MinLength: 2, MaxLength: 3},
		{ID: 127, Name: "Reference Identification", DataType: tAN, MinLength: 1, MaxLength: 30},
		{ID: 352, Name: "Description", DataType: tAN, MinLength: 1, MaxLength: 80},
		{ID: 366, Name: "Contact Function Code", DataType: tID, MinLength: 2, MaxLength: 2,
			ValidCodes: []string{"BD", "BI", "CN", "IC", "OC", "SR"}},
		{ID: 365, Name: "Communication Number Qualifier", DataType: tID, MinLength: 2, MaxLength: 2,
			ValidCodes: []string{"EM", "FX", "TE", "UR"}},
		{ID: 364, Name: "Communication Number", DataType: tAN, MinLength: 1, MaxLength: 80},
		{ID: 755, Name: "Report Type Code", DataType: tID, MinLength: 2, MaxLength: 2, ValidCodes: []string{"10", "25", "35"}},
		{ID: 756, Name: "Report Transmission Code", DataType: tID, MinLength: 1, MaxLength: 2, ValidCodes: []string{"BY", "CF", "EL"}},
		{ID: 757, Name: "Report Copies Needed", DataType: tN, MinLength: 1, MaxLength: 2},

		// Party identification
		{ID: 93, Name: "Name", Description: "Free-form name", DataType: tAN, MinLength: 1, MaxLength: 60},
		{ID: 66, Name: "Identification Code Qualifier", DataType: tID, MinLength: 1, MaxLength: 2, ValidCodes: []string{"1", "9", "91", "92"}},
		{ID: 67, Name: "Identification Code", DataType: tAN, MinLength: 2, MaxLength: 80},
		{ID: 166, Name: "Address Information", DataType: tAN, MinLength: 1, MaxLength: 55},
		{ID: 19, Name: "City Name", DataType: tAN, MinLength: 2, MaxLength: 30},
		{ID: 156, Name: "State or Province Code", DataType: tID, MinLength: 2, MaxLength: 2},
		{ID: 116, Name: "Postal Code", DataType: tID, MinLength: 3, MaxLength: 15},
		{ID: 26, Name: "Country Code", DataType: tID, MinLength: 2, MaxLength: 3},

		// Line items
		{ID: 350, Name: "Assigned Identification", DataType: tAN, MinLength: 1, MaxLength: 20},
		{ID: 330, Name: "Quantity Ordered", DataType: tR, MinLength: 1, MaxLength: 15},
		{ID: 358, Name: "Quantity Invoiced", DataType: tR, MinLength: 1, MaxLength: 10},
		{ID: 355, Name: "Unit or Basis for Measurement Code", DataType: tID, MinLength: 2, MaxLength: 2,
			ValidCodes: []string{"EA", "CA", "LB", "KG", "PC", "BX"}},
		{ID: 212, Name: "Unit Price", DataType: tR, MinLength: 1, MaxLength: 17},
		{ID: 639, Name: "Basis of Unit Price Code", DataType: tID, MinLength: 2, MaxLength: 2,
			ValidCodes: []string{"CP", "PE", "PP", "PK"}},
		{ID: 235, Name: "Product/Service ID Qualifier", DataType: tID, MinLength: 2, MaxLength: 2},
		{ID: 234, Name: "Product/Service ID", DataType: tAN, MinLength: 1, MaxLength: 48},
		{ID: 349, Name: "Item Description Type", DataType: tID, MinLength: 1, MaxLength: 1, ValidCodes: []string{"F", "S", "X"}},
		{ID: 750, Name: "Product/Process Characteristic Code", DataType: tID, MinLength: 2, MaxLength: 3},
		{ID: 559, Name: "Agency Qualifier Code", DataType: tID, MinLength: 2, MaxLength: 2},
		{ID: 751, Name: "Product Description Code", DataType: tAN, MinLength: 1, MaxLength: 12},
		{ID: 248, Name: "Allowance or Charge Indicator", DataType: tID, MinLength: 1, MaxLength: 1, ValidCodes: []string{"A", "C", "N"}},
		{ID: 1300, Name: "Service, Promotion, Allowance, or Charge Code", DataType: tID, MinLength: 4, MaxLength: 4},
		{ID: 1301, Name: "Agency Service, Promotion, Allowance, or Charge Code", DataType: tAN, MinLength: 1, MaxLength: 10},
		{ID: 610, Name: "Amount", DataType: tN, MinLength: 1, MaxLength: 15},
		{ID: 133, Name: "Routing Sequence Code", DataType: tID, MinLength: 1, MaxLength: 2},
		{ID: 91, Name: "Transportation Method/Type Code", DataType: tID, MinLength: 1, MaxLength: 2},
		{ID: 387, Name: "Routing", DataType: tAN, MinLength: 1, MaxLength: 35},
		{ID: 356, Name: "Pack", DataType: tN, MinLength: 1, MaxLength: 6},
		{ID: 357, Name: "Size", DataType: tR, MinLength: 1, MaxLength: 8},

		// Totals
		{ID: 354, Name: "Number of Line Items", DataType: tN, MinLength: 1, MaxLength: 6},
		{ID: 347, Name: "Hash Total", DataType: tR, MinLength: 1, MaxLength: 10},

		// Invoice
		{ID: 76, Name: "Invoice Number", DataType: tAN, MinLength: 1, MaxLength: 22},

		// Functional acknowledgment
		{ID: 479, Name: "Functional Identifier Code", DataType: tID, MinLength: 2, MaxLength: 2, ValidCodes: []string{"FA", "IN", "PO", "SH"}},
		{ID: 28, Name: "Group Control Number", DataType: tN, MinLength: 1, MaxLength: 9},
		{ID: 721, Name: "Segment ID Code", DataType: tID, MinLength: 2, MaxLength: 3},
		{ID: 719, Name: "Segment Position in Transaction Set", DataType: tN, MinLength: 1, MaxLength: 6},
		{ID: 447, Name: "Loop Identifier Code", DataType: tAN, MinLength: 1, MaxLength: 4},
		{ID: 720, Name: "Segment Syntax Error Code", DataType: tID, MinLength: 1, MaxLength: 3},
		{ID: 722, Name: "Element Position in Segment", DataType: tN, MinLength: 1, MaxLength: 2},
		{ID: 725, Name: "Data Element Reference Number", DataType: tN, MinLength: 1, MaxLength: 4},
		{ID: 723, Name: "Data Element Syntax Error Code", DataType: tID, MinLength: 1, MaxLength: 3},
		{ID: 724, Name: "Copy of Bad Data Element", DataType: tAN, MinLength: 1, MaxLength: 99},
		{ID: 717, Name: "Transaction Set Acknowledgment Code", DataType: tID, MinLength: 1, MaxLength: 1,
			ValidCodes: []string{"A", "E", "M", "R", "W", "X"}},
		{ID: 718, Name: "Transaction Set Syntax Error Code", DataType: tID, MinLength: 1, MaxLength: 3},
		{ID: 715, Name: "Functional Group Acknowledge Code", DataType: tID, MinLength: 1, MaxLength: 1,
			ValidCodes: []string{"A", "E", "M", "P", "R", "W", "X"}},
		{ID: 97, Name: "Number of Transaction Sets Included", DataType: tN, MinLength: 1, MaxLength: 6},
		{ID: 123, Name: "Number of Received Transaction Sets", DataType: tN, MinLength: 1, MaxLength: 6},
		{ID: 2, Name: "Number of Accepted Transaction Sets", DataType: tN, MinLength: 1, MaxLength: 6},
		{ID: 716, Name: "Functional Group Syntax Error Code", DataType: tID, MinLength: 1, MaxLength: 3},
	}
}
