// =============================================================================
// X12 EDI Validator - XML Report Writer
// =============================================================================
//
// This module renders a parse result as an XML validation report that
// downstream systems pick up from the output directory.
//
// XML STRUCTURE:
//
//   <validationReport status="partial_success" version="4010" level="standard">
//     <source runId="..." file="orders.edi"/>
//     <summary errors="1" warnings="1" infos="0" valid="false"/>
//     <metrics segments="12" elements="25" transactions="1" parsingMs="0.41" validationMs="0.22"/>
//     <envelope>                               <!-- findings outside transactions -->
//       <diagnostic n="1" severity="warning" rule="orphan_segment" segment="REF">...</diagnostic>
//     </envelope>
//     <transaction n="1" type="850" control="0001" status="invalid" errors="1" warnings="0">
//       <business>
//         <documentId>PO-1</documentId>
//         <lineItemCount>1</lineItemCount>
//       </business>
//       <diagnostic n="2" severity="error" rule="valid_code" segment="BEG"
//                   segmentPosition="2" elementPosition="1" elementId="353" value="99">...</diagnostic>
//     </transaction>
//   </validationReport>
//
//   Diagnostic numbering is global across the report. Segment positions are
//   1-based in the report.
//
// CUSTOMIZATION:
//   - Change element names via GenerateOptions
//   - Add attributes in buildTransactionElement / buildDiagnosticElement
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/ginjaninja78/x12-edi-validator/internal/parser"
	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// RootElement is the name of the root element.
	// Default: "validationReport"
	RootElement string

	// IncludeInfo includes info-severity diagnostics.
	// Default: true
	IncludeInfo bool

	// IncludeBusiness includes the business context of each transaction.
	// Default: true
	IncludeBusiness bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		RootElement:           "validationReport",
		IncludeInfo:           true,
		IncludeBusiness:       true,
	}
}

// ReportSource identifies where the report came from.
type ReportSource struct {
	RunID string
	File  string
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates an XML validation report.
//
// PARAMETERS:
//   - result: The parse result.
//   - source: Run ID and input file name, written as the <source> element.
//
// RETURNS:
//   - The XML document as a byte slice.
func Generate(result *parser.Result, source ReportSource) ([]byte, error) {
	return GenerateWithOptions(result, source, DefaultGenerateOptions())
}

// GenerateWithOptions creates an XML validation report with custom options.
func GenerateWithOptions(result *parser.Result, source ReportSource, options GenerateOptions) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to write")
	}
	if options.RootElement == "" {
		options.RootElement = "validationReport"
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	}

	root := buildDocument(result, source, options)
	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	Name       string
	Attributes []Attr
	Value      string
	Children   []XMLElement
}

// Attr is an XML attribute. Attributes keep insertion order.
type Attr struct {
	Name  string
	Value string
}

func (e *XMLElement) attr(name, value string) {
	e.Attributes = append(e.Attributes, Attr{Name: name, Value: value})
}

// optAttr adds an attribute only when the value is set.
func (e *XMLElement) optAttr(name, value string) {
	if value != "" {
		e.attr(name, value)
	}
}

// buildDocument constructs the XML document structure.
func buildDocument(result *parser.Result, source ReportSource, options GenerateOptions) XMLElement {
	root := XMLElement{Name: options.RootElement}
	root.attr("status", string(result.Status))
	root.attr("version", result.Version)
	root.attr("level", result.Level)
	root.optAttr("partner", result.PartnerID)

	if source.RunID != "" || source.File != "" {
		src := XMLElement{Name: "source"}
		src.optAttr("runId", source.RunID)
		src.optAttr("file", source.File)
		root.Children = append(root.Children, src)
	}

	summary := XMLElement{Name: "summary"}
	summary.attr("errors", strconv.Itoa(result.Summary.ErrorCount))
	summary.attr("warnings", strconv.Itoa(result.Summary.WarningCount))
	summary.attr("infos", strconv.Itoa(result.Summary.InfoCount))
	summary.attr("valid", strconv.FormatBool(result.Summary.IsValid))
	root.Children = append(root.Children, summary)

	m := result.Metrics
	metrics := XMLElement{Name: "metrics"}
	metrics.attr("segments", strconv.Itoa(m.SegmentsProcessed))
	metrics.attr("elements", strconv.Itoa(m.ElementsValidated))
	metrics.attr("transactions", strconv.Itoa(m.TransactionsProcessed))
	metrics.attr("parsingMs", strconv.FormatFloat(float64(m.ParsingTime.Microseconds())/1000, 'f', 3, 64))
	metrics.attr("validationMs", strconv.FormatFloat(float64(m.ValidationTime.Microseconds())/1000, 'f', 3, 64))
	root.Children = append(root.Children, metrics)

	// Group diagnostics by transaction while keeping report order.
	byTransaction := make(map[string][]parser.Diagnostic)
	var envelope []parser.Diagnostic
	for _, d := range result.Diagnostics {
		if !options.IncludeInfo && d.Severity == validation.SeverityInfo {
			continue
		}
		if d.Transaction == "" {
			envelope = append(envelope, d)
			continue
		}
		byTransaction[d.Transaction] = append(byTransaction[d.Transaction], d)
	}

	// Diagnostic numbering is global across the report.
	diagnosticIndex := 0

	if len(envelope) > 0 {
		env := XMLElement{Name: "envelope"}
		for _, d := range envelope {
			diagnosticIndex++
			env.Children = append(env.Children, buildDiagnosticElement(d, diagnosticIndex))
		}
		root.Children = append(root.Children, env)
	}

	for i, txn := range result.Transactions {
		root.Children = append(root.Children,
			buildTransactionElement(txn, i+1, byTransaction[txn.ControlNumber], options, &diagnosticIndex))
		// Control numbers are not guaranteed unique; attach findings once.
		delete(byTransaction, txn.ControlNumber)
	}

	return root
}

// buildTransactionElement creates a <transaction> element.
func buildTransactionElement(txn parser.TransactionSummary, index int, diagnostics []parser.Diagnostic, options GenerateOptions, diagnosticIndex *int) XMLElement {
	el := XMLElement{Name: "transaction"}
	el.attr("n", strconv.Itoa(index))
	el.attr("type", txn.Type)
	el.attr("control", txn.ControlNumber)
	el.optAttr("group", txn.GroupControl)
	el.attr("status", string(txn.Status))
	el.attr("errors", strconv.Itoa(txn.ErrorCount))
	el.attr("warnings", strconv.Itoa(txn.WarningCount))
	el.attr("segments", strconv.Itoa(txn.SegmentCount))

	for _, a := range txn.Agreements {
		el.Children = append(el.Children, createSimpleElement("agreement", a))
	}

	if options.IncludeBusiness {
		b := txn.Business
		business := XMLElement{Name: "business"}
		for _, f := range []struct{ name, value string }{
			{"documentId", b.DocumentID},
			{"documentDate", b.DocumentDate},
			{"currency", b.Currency},
			{"tradingPartner", b.TradingPartner},
		} {
			if f.value != "" {
				business.Children = append(business.Children, createSimpleElement(f.name, f.value))
			}
		}
		if b.TotalAmount != 0 {
			business.Children = append(business.Children,
				createSimpleElement("totalAmount", strconv.FormatFloat(b.TotalAmount, 'f', 2, 64)))
		}
		business.Children = append(business.Children, createSimpleElement("lineItemCount", strconv.Itoa(b.LineItemCount)))
		el.Children = append(el.Children, business)
	}

	for _, d := range diagnostics {
		*diagnosticIndex++
		el.Children = append(el.Children, buildDiagnosticElement(d, *diagnosticIndex))
	}

	return el
}

// buildDiagnosticElement creates a <diagnostic> element.
func buildDiagnosticElement(d parser.Diagnostic, index int) XMLElement {
	el := XMLElement{Name: "diagnostic", Value: d.Message}
	el.attr("n", strconv.Itoa(index))
	el.attr("severity", string(d.Severity))
	el.optAttr("rule", d.Rule)
	el.optAttr("segment", d.SegmentID)
	if d.SegmentPosition != nil {
		el.attr("segmentPosition", strconv.Itoa(*d.SegmentPosition+1))
	}
	if d.ElementPosition != nil {
		el.attr("elementPosition", strconv.Itoa(*d.ElementPosition))
	}
	if d.ElementID != 0 {
		el.attr("elementId", strconv.Itoa(d.ElementID))
	}
	el.optAttr("value", d.Value)
	return el
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{Name: name, Value: value}
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.Name)

	for _, attr := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name, escapeXML(attr.Value)))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML. Control characters other
// than tab, newline and carriage return are not allowed in XML 1.0 and are
// dropped.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
				continue
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
