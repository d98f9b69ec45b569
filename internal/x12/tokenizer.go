// =============================================================================
// X12 EDI Validator - Tokenizer
// =============================================================================
//
// Tokenize turns raw document text into an ordered sequence of segments.
//
// DELIMITER DISCOVERY:
// The interchange header (ISA) is fixed-width. The character right after
// "ISA" is the element separator, the first character of ISA16 is the
// sub-element separator, and the character that follows ISA16 terminates
// the header segment. The first pass splits with the configured separators;
// if the header advertises a different set, the whole input is re-split.
//
// =============================================================================

package x12

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// isaElementCount is the number of elements after the ISA identifier.
const isaElementCount = 16

// TokenizerOptions controls how raw text is split.
type TokenizerOptions struct {
	// Delimiters are the separators assumed before the header is read.
	Delimiters Delimiters

	// TrimWhitespace trims each record and each element value.
	TrimWhitespace bool
}

// DefaultTokenizerOptions returns the default separators with trimming on.
func DefaultTokenizerOptions() TokenizerOptions {
	return TokenizerOptions{
		Delimiters:     DefaultDelimiters(),
		TrimWhitespace: true,
	}
}

// TokenStream is the output of Tokenize.
type TokenStream struct {
	// Delimiters are the separators actually used to split the input.
	Delimiters Delimiters

	// Segments are all records in input order. Segments[0] is the ISA.
	Segments []Segment

	// Rediscovered is true when the header advertised separators that
	// differ from the configured ones and the input was re-split.
	Rediscovered bool
}

// Header returns the interchange header segment.
func (ts *TokenStream) Header() Segment {
	if len(ts.Segments) == 0 {
		return Segment{}
	}
	return ts.Segments[0]
}

// =============================================================================
// TOKENIZE
// =============================================================================

// Tokenize splits raw input into segments.
//
// PARAMETERS:
//   - input: The full document text
//   - opts: Separators to assume and whitespace handling
//
// RETURNS:
//   - *TokenStream: The segments and the separators used
//   - error: A *ParseError wrapping ErrEmptyInput, ErrInvalidHeader,
//     ErrInvalidSegment or ErrInvalidDelimiters
func Tokenize(input string, opts TokenizerOptions) (*TokenStream, error) {
	if err := opts.Delimiters.Validate(); err != nil {
		return nil, &ParseError{Position: 0, Detail: "configured separators", Err: err}
	}

	text := strings.TrimLeft(input, " \t\r\n")
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Position: 0, Detail: "document contains no segments", Err: ErrEmptyInput}
	}

	// STEP 1: First pass with the configured separators
	records := splitRecords(text, opts.Delimiters.Segment, opts.TrimWhitespace)
	if len(records) == 0 {
		return nil, &ParseError{Position: 0, Detail: "document contains no segments", Err: ErrEmptyInput}
	}
	if !strings.HasPrefix(records[0], "ISA") {
		return nil, &ParseError{
			Position: 0,
			Detail:   fmt.Sprintf("first segment must be ISA, found %q", truncate(records[0], 10)),
			Err:      ErrInvalidHeader,
		}
	}

	// STEP 2: Read the separators from the header's fixed positions
	discovered, err := DiscoverDelimiters(records[0], opts.Delimiters.Segment)
	if err != nil {
		return nil, err
	}

	// STEP 3: Re-split when the header disagrees with the assumption
	stream := &TokenStream{Delimiters: discovered}
	if discovered != opts.Delimiters {
		stream.Rediscovered = true
		if discovered.Segment != opts.Delimiters.Segment {
			records = splitRecords(text, discovered.Segment, opts.TrimWhitespace)
		}
	}

	// STEP 4: Split each record into ID and elements
	stream.Segments = make([]Segment, 0, len(records))
	for i, record := range records {
		seg, err := parseRecord(record, discovered.Element, opts.TrimWhitespace)
		if err != nil {
			return nil, &ParseError{Position: i, Detail: err.Error(), Err: ErrInvalidSegment}
		}
		stream.Segments = append(stream.Segments, seg)
	}

	if n := len(stream.Segments[0].Elements); n < isaElementCount {
		return nil, &ParseError{
			Position:  0,
			SegmentID: "ISA",
			Detail:    fmt.Sprintf("header has %d elements, need %d", n, isaElementCount),
			Err:       ErrInvalidHeader,
		}
	}

	return stream, nil
}

// =============================================================================
// DELIMITER DISCOVERY
// =============================================================================

// DiscoverDelimiters reads the separators from the start of an interchange
// header. When the header record has no character after ISA16 (because the
// first pass already removed the terminator) fallbackTerminator is used.
func DiscoverDelimiters(header string, fallbackTerminator rune) (Delimiters, error) {
	if !strings.HasPrefix(header, "ISA") || len(header) < 4 {
		return Delimiters{}, &ParseError{Position: 0, Detail: "header too short to carry separators", Err: ErrInvalidHeader}
	}

	elementSep, _ := utf8.DecodeRuneInString(header[3:])

	// Walk past sixteen element separators to reach ISA16.
	offset := 3
	for count := 0; count < isaElementCount; count++ {
		idx := strings.IndexRune(header[offset:], elementSep)
		if idx < 0 {
			return Delimiters{}, &ParseError{
				Position:  0,
				SegmentID: "ISA",
				Detail:    fmt.Sprintf("header has %d elements, need %d", count, isaElementCount),
				Err:       ErrInvalidHeader,
			}
		}
		offset += idx + utf8.RuneLen(elementSep)
	}

	rest := header[offset:]
	if rest == "" {
		return Delimiters{}, &ParseError{Position: 0, SegmentID: "ISA", Detail: "ISA16 is empty", Err: ErrInvalidHeader}
	}
	subSep, size := utf8.DecodeRuneInString(rest)

	terminator := fallbackTerminator
	if len(rest) > size {
		terminator, _ = utf8.DecodeRuneInString(rest[size:])
	}

	d := Delimiters{Element: elementSep, Segment: terminator, SubElement: subSep}
	if err := d.Validate(); err != nil {
		return Delimiters{}, &ParseError{
			Position:  0,
			SegmentID: "ISA",
			Detail:    fmt.Sprintf("header separators %q %q %q are not distinct", elementSep, terminator, subSep),
			Err:       ErrInvalidHeader,
		}
	}
	return d, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// splitRecords splits on the terminator and discards blank records.
func splitRecords(text string, terminator rune, trim bool) []string {
	raw := strings.Split(text, string(terminator))
	records := make([]string, 0, len(raw))
	for _, r := range raw {
		if trim {
			r = strings.TrimSpace(r)
		}
		if strings.TrimSpace(r) == "" {
			continue
		}
		records = append(records, r)
	}
	return records
}

func parseRecord(record string, elementSep rune, trim bool) (Segment, error) {
	parts := strings.Split(record, string(elementSep))
	id := parts[0]
	if trim {
		id = strings.TrimSpace(id)
	}
	if id == "" {
		return Segment{}, fmt.Errorf("record %q has no segment identifier", truncate(record, 20))
	}

	elements := parts[1:]
	if trim {
		for i := range elements {
			elements[i] = strings.TrimSpace(elements[i])
		}
	}
	return NewSegment(id, elements...), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
