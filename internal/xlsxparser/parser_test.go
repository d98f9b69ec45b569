package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/x12-edi-validator/internal/schema"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// newWorkbook writes the given sheets to a temporary workbook.
func newWorkbook(t *testing.T, sheets map[string][][]interface{}, order ...string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		require.NoError(t, writeRows(f, name, sheets[name]))
	}

	path := filepath.Join(t.TempDir(), "agreements.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseAgreements(t *testing.T) {
	path := newWorkbook(t, map[string][][]interface{}{
		"ACME 850": {
			{"Partner ID", "ACME"},
			{"Transaction Set", "850"},
			{"Versions", ">= 5.1.0"},
			{},
			customizationHeaders,
			{"beg", 1, "Restrict Valid Codes", "00, 05"},
			{"REF", "", "make-mandatory"},
			{"PO1", 2, "change_length_constraints", "", 1, 9, "Quantity up to 9 digits"},
		},
		"_notes": {
			{"anything goes here"},
		},
		"Globex": {
			{"partner", "GLOBEX"},
			{"transaction", "810"},
			{"Name", "Globex invoices"},
			{"Segment"},
			{"BIG", 2, "extend valid codes", "X1;X2"},
		},
	}, "ACME 850", "_notes", "Globex")

	agreements, err := ParseAgreements(path)
	require.NoError(t, err)
	require.Len(t, agreements, 2)

	acme := agreements[0]
	assert.Equal(t, "ACME", acme.PartnerID)
	assert.Equal(t, "ACME 850", acme.Name)
	assert.True(t, acme.AppliesTo("850", x12.Version5010))
	assert.False(t, acme.AppliesTo("850", x12.Version4010))
	require.Len(t, acme.Customizations, 3)

	assert.Equal(t, schema.SchemaCustomization{
		Segment: "BEG", ElementPosition: 1, Kind: schema.RestrictValidCodes, Codes: []string{"00", "05"},
	}, acme.Customizations[0])
	assert.Equal(t, schema.MakeMandatory, acme.Customizations[1].Kind)
	assert.Equal(t, 0, acme.Customizations[1].ElementPosition)
	assert.Equal(t, 9, acme.Customizations[2].MaxLength)
	assert.Equal(t, "Quantity up to 9 digits", acme.Customizations[2].Description)

	globex := agreements[1]
	assert.Equal(t, "Globex invoices", globex.Name)
	assert.Equal(t, []string{"X1", "X2"}, globex.Customizations[0].Codes)
}

func TestParseAgreements_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]interface{}
		want string
	}{
		{
			name: "unknown metadata",
			rows: [][]interface{}{{"Partner ID", "ACME"}, {"Colour", "blue"}},
			want: "row 2: unknown agreement field",
		},
		{
			name: "unknown kind",
			rows: [][]interface{}{{"Partner ID", "ACME"}, {"Transaction Set", "850"}, customizationHeaders, {"BEG", 1, "drop"}},
			want: "row 4",
		},
		{
			name: "bad element",
			rows: [][]interface{}{{"Partner ID", "ACME"}, {"Transaction Set", "850"}, customizationHeaders, {"BEG", "first", "make_optional"}},
			want: `invalid element "first"`,
		},
		{
			name: "missing partner",
			rows: [][]interface{}{{"Transaction Set", "850"}},
			want: "partner_id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := newWorkbook(t, map[string][][]interface{}{"Sheet": tt.rows}, "Sheet")
			_, err := ParseAgreements(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "sheet 'Sheet'")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseAgreements_MissingFile(t *testing.T) {
	_, err := ParseAgreements(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open workbook")
}

func TestWriteAgreements_RoundTrip(t *testing.T) {
	original := []*schema.TradingPartnerAgreement{
		{
			PartnerID:      "ACME",
			Name:           "acme-po",
			TransactionSet: "850",
			Customizations: []schema.SchemaCustomization{
				{Segment: "BEG", ElementPosition: 1, Kind: schema.RestrictValidCodes, Codes: []string{"00"}},
				{Segment: "REF", Kind: schema.MakeMandatory},
			},
		},
		{
			PartnerID:      "GLOBEX",
			Name:           "globex-invoice",
			TransactionSet: "810",
			Versions:       "< 6.0.0",
			Customizations: []schema.SchemaCustomization{
				{Segment: "BIG", ElementPosition: 2, Kind: schema.ChangeLengthConstraints, MinLength: 3, MaxLength: 12},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteAgreements(original, path))

	loaded, err := ParseAgreements(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	for i := range original {
		assert.Equal(t, original[i].PartnerID, loaded[i].PartnerID)
		assert.Equal(t, original[i].Name, loaded[i].Name)
		assert.Equal(t, original[i].TransactionSet, loaded[i].TransactionSet)
		assert.Equal(t, original[i].Versions, loaded[i].Versions)
		assert.Equal(t, original[i].Customizations, loaded[i].Customizations)
	}

	assert.Error(t, WriteAgreements(nil, path))
}

func TestExportCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, ExportCatalog(schema.DefaultCatalog(), x12.Version4010, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Elements", "810", "850", "997"}, f.GetSheetList())

	elements, err := f.GetRows("Elements")
	require.NoError(t, err)
	assert.Equal(t, "ID", elements[0][0])
	assert.Greater(t, len(elements), 20)

	po, err := f.GetRows("850")
	require.NoError(t, err)
	require.Greater(t, len(po), 2)
	assert.Equal(t, []string{"1", "ST", "Transaction Set Header", "M", "1", "header", "", "ST01=143(M) ST02=329(M) ST03=1705(O)"}, po[1])
	assert.Equal(t, "BEG", po[2][1])
	assert.Equal(t, "must_follow ST", po[2][6])
}

func TestExportCatalog_UnknownVersion(t *testing.T) {
	err := ExportCatalog(schema.DefaultCatalog(), x12.VersionUnknown, filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)
}
