package x12

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testISA = "ISA*00*          *00*          *ZZ*SENDER         *ZZ*RECEIVER       *210101*1200*U*00401*000000001*0*T*>~"

const testPurchaseOrder = testISA +
	"GS*PO*SENDER*RECEIVER*20210101*1200*1*X*004010~" +
	"ST*850*0001~" +
	"BEG*00*SA*PO123**20210101~" +
	"N1*BY*ACME~" +
	"PO1*1*10*EA*9.99**VP*ITEM1~" +
	"CTT*1~" +
	"SE*6*0001~" +
	"GE*1*1~" +
	"IEA*1*000000001~"

func TestTokenize_DefaultSeparators(t *testing.T) {
	stream, err := Tokenize(testPurchaseOrder, DefaultTokenizerOptions())
	require.NoError(t, err)

	assert.False(t, stream.Rediscovered)
	assert.Equal(t, DefaultDelimiters(), stream.Delimiters)
	require.Len(t, stream.Segments, 10)

	isa := stream.Header()
	assert.Equal(t, "ISA", isa.ID)
	assert.Len(t, isa.Elements, 16)
	assert.Equal(t, "SENDER", isa.Element(6))
	assert.Equal(t, "000000001", isa.Element(13))
	assert.Equal(t, ">", isa.Element(16))

	beg := stream.Segments[3]
	assert.Equal(t, "BEG", beg.ID)
	assert.Equal(t, KindData, beg.Kind)
	assert.Equal(t, []string{"00", "SA", "PO123", "", "20210101"}, beg.Elements)
	assert.Equal(t, "", beg.Element(4))
	assert.False(t, beg.HasElement(4))

	assert.Equal(t, KindTransactionHeader, stream.Segments[2].Kind)
	assert.Equal(t, KindInterchangeTrailer, stream.Segments[9].Kind)
}

func TestTokenize_DiscoversCustomSeparators(t *testing.T) {
	custom := strings.NewReplacer("*", "|", "~", "\n", ">", ":").Replace(testPurchaseOrder)

	stream, err := Tokenize(custom, DefaultTokenizerOptions())
	require.NoError(t, err)

	assert.True(t, stream.Rediscovered)
	assert.Equal(t, Delimiters{Element: '|', Segment: '\n', SubElement: ':'}, stream.Delimiters)
	require.Len(t, stream.Segments, 10)
	assert.Equal(t, "BEG", stream.Segments[3].ID)
	assert.Equal(t, "PO123", stream.Segments[3].Element(3))
}

func TestTokenize_TrimsWhitespaceAndBlankRecords(t *testing.T) {
	input := "\n\n" + strings.ReplaceAll(testPurchaseOrder, "~", "~\r\n") + "\n\n"

	stream, err := Tokenize(input, DefaultTokenizerOptions())
	require.NoError(t, err)
	require.Len(t, stream.Segments, 10)
	assert.Equal(t, "IEA", stream.Segments[9].ID)
	assert.Equal(t, "000000001", stream.Segments[9].Element(2))
}

func TestTokenize_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t\n"} {
		_, err := Tokenize(input, DefaultTokenizerOptions())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyInput), "input %q", input)
	}
}

func TestTokenize_InvalidHeader(t *testing.T) {
	t.Run("does not start with ISA", func(t *testing.T) {
		_, err := Tokenize("GS*PO*A*B~ST*850*1~", DefaultTokenizerOptions())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidHeader)

		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, 0, perr.Position)
	})

	t.Run("too few header elements", func(t *testing.T) {
		_, err := Tokenize("ISA*00*01*02~GS*PO~", DefaultTokenizerOptions())
		assert.ErrorIs(t, err, ErrInvalidHeader)
	})

	t.Run("separators not distinct", func(t *testing.T) {
		// ISA16 equals the element separator.
		header := strings.Replace(testISA, "*>~", "**~", 1)
		_, err := Tokenize(header+"IEA*1*000000001~", DefaultTokenizerOptions())
		assert.ErrorIs(t, err, ErrInvalidHeader)
	})
}

func TestTokenize_RejectsInvalidConfiguredSeparators(t *testing.T) {
	opts := DefaultTokenizerOptions()
	opts.Delimiters.Segment = '*'

	_, err := Tokenize(testPurchaseOrder, opts)
	assert.ErrorIs(t, err, ErrInvalidDelimiters)
}

func TestTokenize_RoundTrip(t *testing.T) {
	sets := []Delimiters{
		DefaultDelimiters(),
		{Element: '|', Segment: '\n', SubElement: ':'},
		{Element: '^', Segment: '!', SubElement: '\\'},
	}

	original, err := Tokenize(testPurchaseOrder, DefaultTokenizerOptions())
	require.NoError(t, err)

	for _, d := range sets {
		// ISA16 carries the sub-element separator itself.
		segments := append([]Segment(nil), original.Segments...)
		isa := segments[0]
		elements := append([]string(nil), isa.Elements...)
		elements[15] = string(d.SubElement)
		segments[0] = NewSegment("ISA", elements...)

		text := FormatSegments(segments, d)
		again, err := Tokenize(text, DefaultTokenizerOptions())
		require.NoError(t, err, "delimiters %q", []rune{d.Element, d.Segment, d.SubElement})

		assert.Equal(t, d, again.Delimiters)
		assert.Equal(t, segments, again.Segments)
	}
}

func TestDiscoverDelimiters(t *testing.T) {
	d, err := DiscoverDelimiters(testISA, '~')
	require.NoError(t, err)
	assert.Equal(t, DefaultDelimiters(), d)

	// Header already stripped of its terminator falls back.
	d, err = DiscoverDelimiters(strings.TrimSuffix(testISA, "~"), '\n')
	require.NoError(t, err)
	assert.Equal(t, '\n', d.Segment)
	assert.Equal(t, '>', d.SubElement)
}

func TestSegment_Format(t *testing.T) {
	seg := NewSegment("N1", "BY", "", "ACME")
	assert.Equal(t, "N1*BY**ACME", seg.String())
	assert.Equal(t, "N1|BY||ACME", seg.Format(Delimiters{Element: '|', Segment: '\n', SubElement: ':'}))
	assert.Equal(t, "", seg.Element(0))
	assert.Equal(t, "", seg.Element(9))
}

func TestVersion(t *testing.T) {
	assert.Equal(t, Version4010, VersionFromISA("00401"))
	assert.Equal(t, Version8010, VersionFromISA("00801"))
	assert.Equal(t, VersionUnknown, VersionFromISA("00999"))

	v, err := ParseVersion("005010")
	require.NoError(t, err)
	assert.Equal(t, Version5010, v)

	_, err = ParseVersion("7777")
	assert.Error(t, err)

	assert.Equal(t, "4.1.0", Version4010.SemVer().String())
	assert.Equal(t, "00501", Version5010.ISACode())
}
