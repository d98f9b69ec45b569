package schema

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

func TestDefaultCatalog_Introspection(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Equal(t, x12.KnownVersions, catalog.Versions())
	assert.Equal(t, []string{"810", "850", "997"}, catalog.TransactionTypes(x12.Version4010))
	assert.Equal(t, x12.KnownVersions, catalog.SupportedVersions("850"))
	assert.Empty(t, catalog.SupportedVersions("856"))

	spec, ok := catalog.ElementByID(353)
	require.True(t, ok)
	assert.Equal(t, "Transaction Set Purpose Code", spec.Name)

	def, ok := catalog.Element(x12.Version4010, "BEG", 1)
	require.True(t, ok)
	assert.Equal(t, 353, def.ID)
	assert.Equal(t, validation.Mandatory, def.Requirement)

	_, ok = catalog.Element(x12.Version4010, "BEG", 6)
	assert.False(t, ok)

	_, ok = catalog.Layout(x12.Version4010, "PWK")
	assert.False(t, ok)
	_, ok = catalog.Layout(x12.Version5010, "PWK")
	assert.True(t, ok)
}

func TestDefaultCatalog_VersionCodeLists(t *testing.T) {
	catalog := DefaultCatalog()

	currency4010, _ := catalog.Element(x12.Version4010, "CUR", 2)
	currency5010, _ := catalog.Element(x12.Version5010, "CUR", 2)
	assert.Contains(t, currency4010.ValidCodes, "USD")
	assert.Empty(t, currency5010.ValidCodes)

	entity8010, _ := catalog.Element(x12.Version8010, "N1", 1)
	assert.Contains(t, entity8010.ValidCodes, "3P")
	assert.Contains(t, entity8010.ValidCodes, "VN")
}

func TestDefaultCatalog_ConcurrentReads(t *testing.T) {
	engine := NewEngine(DefaultCatalog())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results := engine.ValidateSegmentElements("850", x12.Version4010, purchaseOrderSegments(), "")
			assert.Empty(t, results)
		}()
	}
	wg.Wait()
}

func TestBuilder_ExtendCodes(t *testing.T) {
	catalog, err := NewStandardBuilder().
		ExtendCodes(355, x12.VersionUnknown, "DZ").
		ExtendCodes(353, x12.Version5010, "06").
		Build()
	require.NoError(t, err)

	uom, _ := catalog.Element(x12.Version4010, "PO1", 3)
	assert.Contains(t, uom.ValidCodes, "DZ")
	assert.Contains(t, uom.ValidCodes, "EA")

	purpose4010, _ := catalog.Element(x12.Version4010, "BEG", 1)
	purpose5010, _ := catalog.Element(x12.Version5010, "BEG", 1)
	assert.NotContains(t, purpose4010.ValidCodes, "06")
	assert.Contains(t, purpose5010.ValidCodes, "06")
	assert.Contains(t, purpose5010.ValidCodes, "00")

	// The shared default catalog is untouched.
	standard, _ := DefaultCatalog().Element(x12.Version4010, "PO1", 3)
	assert.NotContains(t, standard.ValidCodes, "DZ")
}

func TestBuilder_Errors(t *testing.T) {
	_, err := NewStandardBuilder().
		ExtendCodes(99999, x12.VersionUnknown, "X").
		RegisterLayout(x12.Version4010, SegmentLayout{ID: "ZZZ", Elements: []ElementRef{mand(88888)}}).
		RegisterTransaction(&TransactionSetSchema{Name: "untyped"}).
		Build()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown element 99999")
	assert.Contains(t, err.Error(), "unknown element 88888")
	assert.Contains(t, err.Error(), "needs a type and a version")
}

func TestCatalog_Partners(t *testing.T) {
	catalog, err := NewStandardBuilder().
		AddAgreement(&TradingPartnerAgreement{PartnerID: "WALMART", TransactionSet: "850"}).
		AddAgreement(&TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "810"}).
		AddAgreement(&TradingPartnerAgreement{PartnerID: "ACME", TransactionSet: "850"}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"ACME", "WALMART"}, catalog.Partners())
	assert.Len(t, catalog.Agreements("ACME", "850", x12.Version4010), 1)
	assert.Empty(t, catalog.Agreements("ACME", "997", x12.Version4010))
}

func TestBuilder_CatalogIsolatedFromLaterCalls(t *testing.T) {
	b := NewStandardBuilder()
	catalog, err := b.Build()
	require.NoError(t, err)

	b.ExtendCodes(353, x12.VersionUnknown, "ZZ").
		RegisterTransaction(&TransactionSetSchema{Type: "856", Version: x12.Version4010, Name: "Ship Notice"}).
		RegisterLayout(x12.Version4010, SegmentLayout{ID: "BEG"})

	spec, ok := catalog.ElementByID(353)
	require.True(t, ok)
	assert.NotContains(t, spec.ValidCodes, "ZZ")
	assert.Empty(t, catalog.SupportedVersions("856"))
	layout, ok := catalog.Layout(x12.Version4010, "BEG")
	require.True(t, ok)
	assert.NotEmpty(t, layout.Elements)

	// ElementByID hands out copies.
	spec.ValidCodes = append(spec.ValidCodes, "YY")
	again, _ := catalog.ElementByID(353)
	assert.NotContains(t, again.ValidCodes, "YY")
}
