package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

func buildWith(t *testing.T, agreements ...*TradingPartnerAgreement) *Catalog {
	t.Helper()
	b := NewStandardBuilder()
	for _, a := range agreements {
		b.AddAgreement(a)
	}
	catalog, err := b.Build()
	require.NoError(t, err)
	return catalog
}

func TestParseCustomizationKind(t *testing.T) {
	tests := []struct {
		in   string
		want CustomizationKind
	}{
		{"make_mandatory", MakeMandatory},
		{"Make Optional", MakeOptional},
		{"extend-valid-codes", ExtendValidCodes},
		{"RESTRICT_VALID_CODES", RestrictValidCodes},
		{" change_length_constraints ", ChangeLengthConstraints},
	}
	for _, tt := range tests {
		got, err := ParseCustomizationKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseCustomizationKind("drop_segment")
	assert.ErrorIs(t, err, ErrUnknownCustomization)
}

func TestEffective_Overlay(t *testing.T) {
	catalog := buildWith(t, &TradingPartnerAgreement{
		PartnerID:      "ACME",
		Name:           "ACME purchase orders",
		TransactionSet: "850",
		Customizations: []SchemaCustomization{
			{Segment: "CUR", Kind: MakeMandatory},
			{Segment: "BEG", ElementPosition: 4, Kind: MakeMandatory},
			{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"00"}},
			{Segment: "PO1", ElementPosition: 3, Kind: ExtendValidCodes, Codes: []string{"DZ"}},
			{Segment: "BEG", ElementPosition: 3, Kind: ChangeLengthConstraints, MinLength: 5, MaxLength: 10},
		},
	})

	eff, err := catalog.Effective("850", x12.Version4010, "ACME")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME purchase orders"}, eff.Applied)

	for _, ss := range eff.Transaction.Segments {
		if ss.ID == "CUR" {
			assert.Equal(t, validation.Mandatory, ss.Requirement)
		}
	}

	release, _ := eff.Element("BEG", 4)
	assert.Equal(t, validation.Mandatory, release.Requirement)

	purpose, _ := eff.Element("BEG", 1)
	assert.Equal(t, []string{"00"}, purpose.ValidCodes)

	uom, _ := eff.Element("PO1", 3)
	assert.Contains(t, uom.ValidCodes, "DZ")

	number, _ := eff.Element("BEG", 3)
	assert.Equal(t, 5, number.MinLength)
	assert.Equal(t, 10, number.MaxLength)

	// The base schema is never modified.
	base, err := catalog.Effective("850", x12.Version4010, "")
	require.NoError(t, err)
	basePurpose, _ := base.Element("BEG", 1)
	assert.Contains(t, basePurpose.ValidCodes, "05")
	cur, _ := base.Transaction.Lookup("CUR")
	assert.Equal(t, validation.Optional, cur.Requirement)
	baseUOM, _ := catalog.Element(x12.Version4010, "PO1", 3)
	assert.NotContains(t, baseUOM.ValidCodes, "DZ")
}

func TestEffective_OverlayFindings(t *testing.T) {
	catalog := buildWith(t, &TradingPartnerAgreement{
		PartnerID:      "ACME",
		TransactionSet: "850",
		Customizations: []SchemaCustomization{
			{Segment: "CUR", Kind: MakeMandatory},
			{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"05"}},
		},
	})
	engine := NewEngine(catalog)

	structure := engine.ValidateTransactionStructure("850", x12.Version4010, ids(purchaseOrderSegments()), "ACME")
	assert.Equal(t, []string{"Missing mandatory segment CUR"}, messages(structure))

	elements := engine.ValidateSegmentElements("850", x12.Version4010, purchaseOrderSegments(), "ACME")
	require.Len(t, elements, 1)
	assert.Equal(t, validation.RuleValidCode, elements[0].Rule)

	// Other partners see the base schema.
	assert.Empty(t, engine.ValidateTransactionStructure("850", x12.Version4010, ids(purchaseOrderSegments()), "OTHER"))
}

func TestEffective_ExtendOpenCodeSetIsNoop(t *testing.T) {
	catalog := buildWith(t, &TradingPartnerAgreement{
		PartnerID:      "ACME",
		TransactionSet: "850",
		Customizations: []SchemaCustomization{
			{Segment: "BEG", ElementPosition: 3, Kind: ExtendValidCodes, Codes: []string{"PO123"}},
		},
	})

	eff, err := catalog.Effective("850", x12.Version4010, "ACME")
	require.NoError(t, err)

	number, _ := eff.Element("BEG", 3)
	assert.Empty(t, number.ValidCodes)
}

func TestEffective_RestrictionOutsideBaseCodes(t *testing.T) {
	catalog := buildWith(t, &TradingPartnerAgreement{
		PartnerID:      "ACME",
		TransactionSet: "850",
		Customizations: []SchemaCustomization{
			{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"ZZ"}},
		},
	})

	eff, err := catalog.Effective("850", x12.Version4010, "ACME")
	require.NoError(t, err)
	purpose, _ := eff.Element("BEG", 1)
	assert.Empty(t, purpose.ValidCodes)
	assert.True(t, purpose.HasCodeList())

	engine := NewEngine(catalog)
	for _, code := range []string{"00", "99", "ZZ"} {
		segments := purchaseOrderSegments()
		segments[1] = x12.NewSegment("BEG", code, "SA", "PO123", "", "20210101")

		results := engine.ValidateSegmentElements("850", x12.Version4010, segments, "ACME")
		require.Len(t, results, 1, code)
		assert.Equal(t, validation.RuleValidCode, results[0].Rule)
	}
}

func TestEffective_RestrictOpenCodeSetCloses(t *testing.T) {
	catalog := buildWith(t, &TradingPartnerAgreement{
		PartnerID:      "ACME",
		TransactionSet: "850",
		Customizations: []SchemaCustomization{
			{Segment: "BEG", ElementPosition: 2, Kind: RestrictValidCodes, Codes: []string{"SA"}},
			{Segment: "BEG", ElementPosition: 3, Kind: RestrictValidCodes, Codes: []string{"PO1"}},
			{Segment: "BEG", ElementPosition: 3, Kind: ExtendValidCodes, Codes: []string{"PO1"}},
		},
	})

	eff, err := catalog.Effective("850", x12.Version4010, "ACME")
	require.NoError(t, err)
	number, _ := eff.Element("BEG", 3)
	assert.Equal(t, []string{"PO1"}, number.ValidCodes)
	assert.True(t, number.ClosedCodes)

	results := NewEngine(catalog).ValidateSegmentElements("850", x12.Version4010, purchaseOrderSegments(), "ACME")
	require.Len(t, results, 1, messages(results))
	assert.Equal(t, "BEG", results[0].SegmentID)
	assert.Equal(t, 3, *results[0].ElementPosition)
}

func TestEffective_Precedence(t *testing.T) {
	catalog := buildWith(t,
		&TradingPartnerAgreement{
			PartnerID: "ACME", Name: "first", TransactionSet: "850",
			Customizations: []SchemaCustomization{
				{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"00", "05"}},
			},
		},
		&TradingPartnerAgreement{
			PartnerID: "ACME", Name: "second", TransactionSet: "850",
			Customizations: []SchemaCustomization{
				{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"05"}},
			},
		},
	)

	eff, err := catalog.Effective("850", x12.Version4010, "ACME")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, eff.Applied)

	purpose, _ := eff.Element("BEG", 1)
	assert.Equal(t, []string{"05"}, purpose.ValidCodes)
}

func TestAddAgreement_Conflicts(t *testing.T) {
	tests := []struct {
		name    string
		first   []SchemaCustomization
		second  []SchemaCustomization
		wantErr error
	}{
		{
			name:    "mandatory and optional",
			first:   []SchemaCustomization{{Segment: "CUR", Kind: MakeMandatory}},
			second:  []SchemaCustomization{{Segment: "CUR", Kind: MakeOptional}},
			wantErr: ErrCustomizationConflict,
		},
		{
			name:    "different lengths",
			first:   []SchemaCustomization{{Segment: "BEG", ElementPosition: 3, Kind: ChangeLengthConstraints, MaxLength: 10}},
			second:  []SchemaCustomization{{Segment: "BEG", ElementPosition: 3, Kind: ChangeLengthConstraints, MaxLength: 12}},
			wantErr: ErrCustomizationConflict,
		},
		{
			name:    "extend excluded by restrict",
			first:   []SchemaCustomization{{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"00"}}},
			second:  []SchemaCustomization{{Segment: "BEG", ElementPosition: 1, Kind: ExtendValidCodes, Codes: []string{"06"}}},
			wantErr: ErrCustomizationConflict,
		},
		{
			name:    "disjoint restrictions",
			first:   []SchemaCustomization{{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"00"}}},
			second:  []SchemaCustomization{{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"05"}}},
			wantErr: ErrCustomizationConflict,
		},
		{
			name:   "overlapping restrictions",
			first:  []SchemaCustomization{{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"00", "05"}}},
			second: []SchemaCustomization{{Segment: "BEG", ElementPosition: 1, Kind: RestrictValidCodes, Codes: []string{"05"}}},
		},
		{
			name:   "different targets",
			first:  []SchemaCustomization{{Segment: "CUR", Kind: MakeMandatory}},
			second: []SchemaCustomization{{Segment: "PER", Kind: MakeOptional}},
		},
		{
			name:   "same length twice",
			first:  []SchemaCustomization{{Segment: "BEG", ElementPosition: 3, Kind: ChangeLengthConstraints, MaxLength: 10}},
			second: []SchemaCustomization{{Segment: "BEG", ElementPosition: 3, Kind: ChangeLengthConstraints, MaxLength: 10}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStandardBuilder().
				AddAgreement(&TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850", Customizations: tt.first}).
				AddAgreement(&TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850", Customizations: tt.second}).
				Build()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAddAgreement_ConflictWithinOneAgreement(t *testing.T) {
	_, err := NewStandardBuilder().
		AddAgreement(&TradingPartnerAgreement{
			PartnerID: "ACME", TransactionSet: "850",
			Customizations: []SchemaCustomization{
				{Segment: "CUR", Kind: MakeMandatory},
				{Segment: "CUR", Kind: MakeOptional},
			},
		}).
		Build()
	assert.ErrorIs(t, err, ErrCustomizationConflict)
}

func TestAddAgreement_DifferentPartnersDoNotConflict(t *testing.T) {
	buildWith(t,
		&TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850",
			Customizations: []SchemaCustomization{{Segment: "CUR", Kind: MakeMandatory}}},
		&TradingPartnerAgreement{PartnerID: "GLOBEX", TransactionSet: "850",
			Customizations: []SchemaCustomization{{Segment: "CUR", Kind: MakeOptional}}},
	)
}

func TestAddAgreement_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		agreement *TradingPartnerAgreement
		wantErr   error
	}{
		{"no partner", &TradingPartnerAgreement{TransactionSet: "850"}, ErrInvalidAgreement},
		{"no transaction set", &TradingPartnerAgreement{PartnerID: "ACME"}, ErrInvalidAgreement},
		{"bad versions", &TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850", Versions: "banana"}, ErrInvalidAgreement},
		{"unknown kind", &TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850",
			Customizations: []SchemaCustomization{{Segment: "BEG", Kind: "drop"}}}, ErrUnknownCustomization},
		{"codes without position", &TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850",
			Customizations: []SchemaCustomization{{Segment: "BEG", Kind: ExtendValidCodes, Codes: []string{"X"}}}}, ErrInvalidAgreement},
		{"unknown segment", &TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850",
			Customizations: []SchemaCustomization{{Segment: "BIG", Kind: MakeMandatory}}}, ErrInvalidAgreement},
		{"position out of range", &TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850",
			Customizations: []SchemaCustomization{{Segment: "BEG", ElementPosition: 9, Kind: MakeMandatory}}}, ErrInvalidAgreement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStandardBuilder().AddAgreement(tt.agreement).Build()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAgreement_AppliesTo(t *testing.T) {
	a := &TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850", Versions: ">= 5.1.0"}
	require.NoError(t, a.Validate())

	assert.False(t, a.AppliesTo("850", x12.Version4010))
	assert.True(t, a.AppliesTo("850", x12.Version5010))
	assert.True(t, a.AppliesTo("850", x12.Version8010))
	assert.False(t, a.AppliesTo("810", x12.Version5010))

	open := &TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850"}
	assert.True(t, open.AppliesTo("850", x12.Version4010))
}

func TestEffective_VersionScopedAgreement(t *testing.T) {
	catalog := buildWith(t, &TradingPartnerAgreement{
		PartnerID: "ACME", TransactionSet: "850", Versions: ">= 5.1.0",
		Customizations: []SchemaCustomization{{Segment: "PWK", Kind: MakeMandatory}},
	})

	eff4010, err := catalog.Effective("850", x12.Version4010, "ACME")
	require.NoError(t, err)
	assert.Empty(t, eff4010.Applied)

	eff5010, err := catalog.Effective("850", x12.Version5010, "ACME")
	require.NoError(t, err)
	pwk, ok := eff5010.Transaction.Lookup("PWK")
	require.True(t, ok)
	assert.Equal(t, validation.Mandatory, pwk.Requirement)
}

func TestEffective_LoopAnchors(t *testing.T) {
	eff, err := DefaultCatalog().Effective("850", x12.Version4010, "")
	require.NoError(t, err)

	anchors := eff.LoopAnchors()
	assert.Equal(t, "N1", anchors["N3"])
	assert.Equal(t, "PO1", anchors["PID"])
	_, ok := anchors["CUR"]
	assert.False(t, ok, "CUR also has a header entry outside any loop")
}

// errorKeys lists the error findings of a structure and element run.
func errorKeys(engine *Engine, segments []x12.Segment, partnerID string) []string {
	results := engine.ValidateTransactionStructure("850", x12.Version4010, ids(segments), partnerID)
	results = append(results, engine.ValidateSegmentElements("850", x12.Version4010, segments, partnerID)...)

	var keys []string
	for _, r := range results {
		if r.IsError() {
			keys = append(keys, r.Rule+": "+r.Message)
		}
	}
	return keys
}

func TestEffective_OverlayMonotonicity(t *testing.T) {
	// BEG01 and PO103 carry codes outside the base lists; CUR and BEG04
	// are absent; BEG02 is SA.
	segments := purchaseOrderSegments()
	segments[1] = x12.NewSegment("BEG", "99", "SA", "PO123", "", "20210101")
	segments[3] = x12.NewSegment("PO1", "1", "10", "DZ", "9.99", "", "VP", "ITEM1")

	tests := []struct {
		name string
		cust SchemaCustomization
		// adds reports whether the overlay may only add errors; otherwise
		// it may only remove code-membership errors.
		adds bool
	}{
		{"make segment mandatory", SchemaCustomization{Segment: "CUR", Kind: MakeMandatory}, true},
		{"make element mandatory", SchemaCustomization{Segment: "BEG", ElementPosition: 4, Kind: MakeMandatory}, true},
		{"restrict codes", SchemaCustomization{Segment: "BEG", ElementPosition: 2, Kind: RestrictValidCodes, Codes: []string{"KA"}}, true},
		{"extend codes", SchemaCustomization{Segment: "PO1", ElementPosition: 3, Kind: ExtendValidCodes, Codes: []string{"DZ"}}, false},
		{"extend codes with unused code", SchemaCustomization{Segment: "BEG", ElementPosition: 1, Kind: ExtendValidCodes, Codes: []string{"06"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := buildWith(t, &TradingPartnerAgreement{
				PartnerID:      "ACME",
				TransactionSet: "850",
				Customizations: []SchemaCustomization{tt.cust},
			})
			engine := NewEngine(catalog)

			base := errorKeys(engine, segments, "")
			custom := errorKeys(engine, segments, "ACME")
			require.NotEmpty(t, base)

			if tt.adds {
				assert.Subset(t, custom, base)
				assert.Greater(t, len(custom), len(base))
				return
			}

			assert.Subset(t, base, custom)
			for _, key := range base {
				if !contains(custom, key) {
					assert.Contains(t, key, validation.RuleValidCode+": ")
				}
			}
		})
	}
}
