package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "input"), filepath.Join(root, "output"), filepath.Join(root, "archive"))
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("ISA*"), 0644))
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	for _, name := range []string{"b.edi", "a.X12", "c.txt", "notes.md", ".hidden.edi", "d.edi~"} {
		touch(t, filepath.Join(fm.InputDir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "dir.edi"), 0755))

	files, err := fm.DiscoverInputFiles("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, "a.X12"),
		filepath.Join(fm.InputDir, "b.edi"),
		filepath.Join(fm.InputDir, "c.txt"),
	}, files)

	files, err = fm.DiscoverInputFiles("*.edi")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, ".hidden.edi"),
		filepath.Join(fm.InputDir, "b.edi"),
	}, files)
}

func TestDiscoverInputFiles_MissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "nope"), "", "")
	_, err := fm.DiscoverInputFiles("")
	assert.Error(t, err)
}

func TestArchiveInputFile(t *testing.T) {
	fm := newTestManager(t)

	first := filepath.Join(fm.InputDir, "orders.edi")
	touch(t, first)
	archived, err := fm.ArchiveInputFile(first)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.ArchiveDir, "orders.edi"), archived)
	assert.False(t, FileExists(first))
	assert.True(t, FileExists(archived))

	// A second file with the same name does not overwrite the first.
	touch(t, first)
	second, err := fm.ArchiveInputFile(first)
	require.NoError(t, err)
	assert.NotEqual(t, archived, second)
	assert.True(t, strings.HasPrefix(filepath.Base(second), "orders_"))
	assert.Equal(t, ".edi", filepath.Ext(second))
	assert.True(t, FileExists(archived))
}

func TestArchiveInputFile_TimestampSubdirs(t *testing.T) {
	fm := newTestManager(t)
	fm.UseTimestampSubdirs = true

	path := filepath.Join(fm.InputDir, "orders.edi")
	touch(t, path)
	archived, err := fm.ArchiveInputFile(path)
	require.NoError(t, err)

	now := time.Now()
	assert.Contains(t, archived, filepath.Join(fm.ArchiveDir, now.Format("2006"), now.Format("01")))
}

func TestArchiveInputFile_Disabled(t *testing.T) {
	fm := newTestManager(t)
	fm.ArchiveOnSuccess = false

	path := filepath.Join(fm.InputDir, "orders.edi")
	touch(t, path)
	archived, err := fm.ArchiveInputFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, archived)
	assert.True(t, FileExists(path))
}

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("{original}_{status}_{timestamp}", map[string]string{
		"original": "orders",
		"status":   "success",
	})
	assert.Regexp(t, regexp.MustCompile(`^orders_success_\d{8}_\d{6}\.xml$`), name)

	name = GenerateOutputFileName("{uuid}.XML", nil)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.XML$`), name)

	assert.Equal(t, "fixed.xml", GenerateOutputFileName("fixed", nil))
}

func TestOriginalName(t *testing.T) {
	assert.Equal(t, "orders", OriginalName("/in/orders.edi"))
	assert.Equal(t, "orders.2024", OriginalName("orders.2024.x12"))
}

func TestWriteErrorLog(t *testing.T) {
	fm := newTestManager(t)

	path, err := WriteErrorLog(nil, fm.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp:       time.Now(),
		FileName:        "orders.edi",
		ErrorType:       "valid_code",
		ErrorMessage:    "'99' is not a valid code",
		Transaction:     "0001",
		SegmentID:       "BEG",
		SegmentPosition: 2,
		ElementPosition: 1,
		Value:           "99",
	}}, fm.OutputDir)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "Total Errors: 1")
	assert.Contains(t, text, "Transaction:    0001")
	assert.Contains(t, text, "Segment:        BEG")
	assert.Contains(t, text, "Element:        01")
}

func TestWriteSummaryLog(t *testing.T) {
	fm := newTestManager(t)
	start := time.Now()

	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime:         start,
		EndTime:           start.Add(2 * time.Second),
		TotalFiles:        2,
		SuccessfulFiles:   1,
		FailedFiles:       1,
		TotalTransactions: 3,
		ProcessedFiles:    []ProcessedFileInfo{{InputFile: "a.edi", OutputFile: "a.xml", Status: "success", Transactions: 3}},
		FailedFilesList:   []FailedFileInfo{{InputFile: "b.edi", ErrorMessage: "empty input"}},
	}, fm.OutputDir)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "Duration:       2s")
	assert.Contains(t, text, "Report:       a.xml")
	assert.Contains(t, text, "Error: empty input")
}

func TestCleanOldArchives(t *testing.T) {
	fm := newTestManager(t)

	old := filepath.Join(fm.ArchiveDir, "old.edi")
	fresh := filepath.Join(fm.ArchiveDir, "fresh.edi")
	touch(t, old)
	touch(t, fresh)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	removed, err := CleanOldArchives(fm.ArchiveDir, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, FileExists(old))
	assert.True(t, FileExists(fresh))
}
