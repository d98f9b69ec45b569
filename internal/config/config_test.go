package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/x12-edi-validator/internal/parser"
	"github.com/ginjaninja78/x12-edi-validator/internal/schema"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMainConfig_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "input_dir: ./in\n")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./in", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "{original}_{timestamp}.xml", cfg.ReportNameFormat)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.True(t, cfg.ContinueOnErrorEnabled())
	assert.Equal(t, "auto", cfg.Parsing.Version)
	assert.Equal(t, "standard", cfg.Parsing.ValidationLevel)

	opts, err := cfg.ParserOptions()
	require.NoError(t, err)
	assert.Equal(t, x12.DefaultDelimiters(), opts.Delimiters)
	assert.Equal(t, x12.VersionUnknown, opts.Version)
	assert.Equal(t, parser.LevelStandard, opts.Level)
	assert.True(t, opts.TrimWhitespace)
	assert.True(t, opts.CollectDetails)
}

func TestLoadMainConfig_ParsingBlock(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
continue_on_error: false
max_concurrency: 2
parsing:
  segment_separator: '\n'
  trim_whitespace: false
  strict: true
  version: "005010"
  validation_level: complete
  trading_partner_id: ACME
  collect_details: false
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	opts, err := cfg.ParserOptions()
	require.NoError(t, err)
	assert.Equal(t, '\n', opts.Delimiters.Segment)
	assert.Equal(t, '*', opts.Delimiters.Element)
	assert.False(t, opts.TrimWhitespace)
	assert.True(t, opts.Strict)
	assert.Equal(t, x12.Version5010, opts.Version)
	assert.Equal(t, parser.LevelComplete, opts.Level)
	assert.Equal(t, "ACME", opts.PartnerID)
	assert.False(t, opts.CollectDetails)
	assert.False(t, opts.ContinueOnError)
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", "log_level: loud\n"},
		{"negative concurrency", "max_concurrency: -1\n"},
		{"long separator", "parsing:\n  element_separator: '**'\n"},
		{"duplicate separators", "parsing:\n  element_separator: '~'\n"},
		{"unknown version", "parsing:\n  version: '3070'\n"},
		{"unknown level", "parsing:\n  validation_level: paranoid\n"},
		{"malformed yaml", "parsing: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tt.content)
			_, err := LoadMainConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMainConfig_MissingFile(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.ArchiveDir = filepath.Join(root, "archive", "nested")

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.InputDir, cfg.OutputDir, cfg.ArchiveDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLoadPartnerAgreements(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "a_acme.yaml", `
agreements:
  - partner_id: ACME
    transaction_set: "850"
    customizations:
      - segment: beg
        element: 1
        kind: Restrict Valid Codes
        codes: ["00"]
      - segment: REF
        kind: make-mandatory
`)
	writeFile(t, dir, "b_globex.toml", `
[[agreements]]
partner_id = "GLOBEX"
name = "Globex invoices"
transaction_set = "810"
versions = ">= 5.1.0"

[[agreements.customizations]]
segment = "BIG"
element = 2
kind = "change_length_constraints"
min_length = 4
max_length = 10
`)
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755))

	agreements, err := LoadPartnerAgreements(dir)
	require.NoError(t, err)
	require.Len(t, agreements, 2)

	acme := agreements[0]
	assert.Equal(t, "ACME", acme.PartnerID)
	assert.Equal(t, "a_acme", acme.Name)
	require.Len(t, acme.Customizations, 2)
	assert.Equal(t, "BEG", acme.Customizations[0].Segment)
	assert.Equal(t, schema.RestrictValidCodes, acme.Customizations[0].Kind)
	assert.Equal(t, schema.MakeMandatory, acme.Customizations[1].Kind)

	globex := agreements[1]
	assert.Equal(t, "Globex invoices", globex.Name)
	assert.True(t, globex.AppliesTo("810", x12.Version5010))
	assert.False(t, globex.AppliesTo("810", x12.Version4010))
	require.Len(t, globex.Customizations, 1)
	assert.Equal(t, 10, globex.Customizations[0].MaxLength)

	_, err = schema.NewStandardBuilder().AddAgreement(acme).AddAgreement(globex).Build()
	assert.NoError(t, err)
}

func TestLoadPartnerAgreements_MissingDir(t *testing.T) {
	agreements, err := LoadPartnerAgreements(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, agreements)
}

func TestLoadAgreementFile_Errors(t *testing.T) {
	dir := t.TempDir()

	unknownKind := writeFile(t, dir, "kind.yaml", `
agreements:
  - partner_id: ACME
    transaction_set: "850"
    customizations:
      - segment: BEG
        kind: delete_segment
`)
	_, err := LoadAgreementFile(unknownKind)
	assert.ErrorIs(t, err, schema.ErrUnknownCustomization)

	noPartner := writeFile(t, dir, "partner.toml", `
[[agreements]]
transaction_set = "850"
`)
	_, err = LoadAgreementFile(noPartner)
	assert.ErrorIs(t, err, schema.ErrInvalidAgreement)

	broken := writeFile(t, dir, "broken.toml", "[[agreements]\n")
	_, err = LoadAgreementFile(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
