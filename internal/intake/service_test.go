package intake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formintake/formintake/internal/fields"
)

const sampleFormText = `Form I-485, Application to Register Permanent Residence or Adjust Status

Part 1. Information About You

1. Full Legal Name
2. Date of Birth
3. Current Mailing Address
`

func newTestService(t *testing.T, intakeDir string) *Service {
	t.Helper()
	svc, err := NewService(Options{
		MaxFileSize:     10 * 1024 * 1024,
		IntakeDir:       intakeDir,
		CacheTTL:        time.Minute,
		CleanupInterval: time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractFileFromText(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	path := writeTestFile(t, dir, "i485.txt", sampleFormText)

	result, err := svc.ExtractFile(ExtractFileRequest{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "i485.txt", result.Name)
	assert.Equal(t, "text", result.Format)
	assert.False(t, result.CacheHit)

	require.NotNil(t, result.Result)
	assert.Equal(t, fields.FormTypeI485, result.Result.FormType)
	// 1 → parent + 3 name subfields, 2 → leaf, 3 → parent + 6
	// mailing subfields.
	assert.Equal(t, 12, result.Result.FieldCount())
	assert.Equal(t, 2, result.Result.ParentCount())
	require.Len(t, result.Result.Parts, 1)
}

func TestExtractFileServedFromCache(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	path := writeTestFile(t, dir, "form.txt", sampleFormText)

	first, err := svc.ExtractFile(ExtractFileRequest{Path: path})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 1, svc.CachedResults())

	second, err := svc.ExtractFile(ExtractFileRequest{Path: path})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Result.FieldCount(), second.Result.FieldCount())
}

func TestExtractFileCacheMissAfterRewrite(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	path := writeTestFile(t, dir, "form.txt", sampleFormText)

	first, err := svc.ExtractFile(ExtractFileRequest{Path: path})
	require.NoError(t, err)
	assert.Equal(t, fields.FormTypeI485, first.Result.FormType)

	// A rewrite with different size changes the cache key.
	writeTestFile(t, dir, "form.txt", "Form N-400\n1. Current Legal Name\n")

	second, err := svc.ExtractFile(ExtractFileRequest{Path: path})
	require.NoError(t, err)
	assert.False(t, second.CacheHit)
	assert.Equal(t, fields.FormTypeN400, second.Result.FormType)
}

func TestExtractFileOutsideIntakeDirectory(t *testing.T) {
	intakeDir := t.TempDir()
	otherDir := t.TempDir()
	svc := newTestService(t, intakeDir)
	path := writeTestFile(t, otherDir, "form.txt", sampleFormText)

	_, err := svc.ExtractFile(ExtractFileRequest{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security validation failed")
}

func TestExtractFileErrors(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{
			name:    "missing_file",
			path:    filepath.Join(dir, "absent.txt"),
			wantErr: "does not exist",
		},
		{
			name:    "unsupported_extension",
			path:    writeTestFile(t, dir, "scan.png", "binary-ish"),
			wantErr: "unsupported document type",
		},
		{
			name:    "empty_file",
			path:    writeTestFile(t, dir, "empty.txt", ""),
			wantErr: "file is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ExtractFile(ExtractFileRequest{Path: tt.path})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDetectType(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	path := writeTestFile(t, dir, "naturalization.txt",
		"Form N-400, Application for Naturalization\n1. Current Legal Name\n")

	result, err := svc.DetectType(DetectTypeRequest{Path: path})
	require.NoError(t, err)

	assert.Equal(t, fields.FormTypeN400, result.FormType)
	assert.Equal(t, "Application for Naturalization", result.FormTitle)
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	valid := writeTestFile(t, dir, "form.txt", sampleFormText)
	garbagePDF := writeTestFile(t, dir, "broken.pdf", "not really a pdf")
	subDir := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(subDir, 0755))

	tests := []struct {
		name        string
		path        string
		wantValid   bool
		wantMessage string
	}{
		{
			name:      "valid_text_file",
			path:      valid,
			wantValid: true,
		},
		{
			name:        "garbage_pdf_fails_deep_probe",
			path:        garbagePDF,
			wantValid:   false,
			wantMessage: "invalid PDF file",
		},
		{
			name:        "missing_file",
			path:        filepath.Join(dir, "absent.txt"),
			wantValid:   false,
			wantMessage: "does not exist",
		},
		{
			name:        "directory_not_file",
			path:        subDir,
			wantValid:   false,
			wantMessage: "directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.ValidateFile(ValidateFileRequest{Path: tt.path})
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantMessage != "" {
				assert.Contains(t, result.Message, tt.wantMessage)
			}
		})
	}
}

func TestValidateFileTooLarge(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(Options{
		MaxFileSize: 16,
		IntakeDir:   dir,
	})
	require.NoError(t, err)

	path := writeTestFile(t, dir, "big.txt", strings.Repeat("x", 64))

	result, err := svc.ValidateFile(ValidateFileRequest{Path: path})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "file too large")
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	writeTestFile(t, dir, "i485_application.txt", sampleFormText)
	writeTestFile(t, dir, "notes.md", "# Notes\n\nSome notes.\n")
	writeTestFile(t, dir, "scan.png", "not supported")
	writeTestFile(t, dir, "empty.txt", "")

	subDir := filepath.Join(dir, "archive")
	require.NoError(t, os.Mkdir(subDir, 0755))
	writeTestFile(t, subDir, "old_form.txt", sampleFormText)

	hiddenDir := filepath.Join(dir, ".trash")
	require.NoError(t, os.Mkdir(hiddenDir, 0755))
	writeTestFile(t, hiddenDir, "deleted.txt", sampleFormText)

	result, err := svc.ScanDirectory(ScanDirectoryRequest{Directory: dir})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"i485_application.txt", "notes.md", "old_form.txt"}, names)
	assert.Equal(t, 3, result.TotalCount)
}

func TestScanDirectoryWithQuery(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	writeTestFile(t, dir, "i485_application.txt", sampleFormText)
	writeTestFile(t, dir, "n400_draft.txt", sampleFormText)

	result, err := svc.ScanDirectory(ScanDirectoryRequest{Directory: dir, Query: "i485"})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "i485_application.txt", result.Files[0].Name)
	assert.Equal(t, "i485", result.SearchQuery)
}

func TestScanDirectoryDefaultsToIntakeDir(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	writeTestFile(t, dir, "form.txt", sampleFormText)

	result, err := svc.ScanDirectory(ScanDirectoryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
}

func TestServerInfo(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	writeTestFile(t, dir, "form.txt", sampleFormText)

	info, err := svc.ServerInfo("formintake", "1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "formintake", info.ServerName)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, dir, info.IntakeDirectory)
	assert.Equal(t, int64(10*1024*1024), info.MaxFileSize)
	assert.Contains(t, info.SupportedExtensions, ".pdf")
	assert.Contains(t, info.SupportedExtensions, ".txt")
	assert.Contains(t, info.KnownForms, "I-485")

	require.Len(t, info.AvailableTools, 5)
	toolNames := make([]string, 0, 5)
	for _, tool := range info.AvailableTools {
		toolNames = append(toolNames, tool.Name)
	}
	assert.Equal(t, []string{
		"form_extract_fields",
		"form_detect_type",
		"form_validate_file",
		"form_intake_directory",
		"form_server_info",
	}, toolNames)

	require.Len(t, info.DirectoryContents, 1)
	assert.Equal(t, "form.txt", info.DirectoryContents[0].Name)
	assert.NotEmpty(t, info.UsageGuidance)
}

func TestCacheKey(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "form.txt", sampleFormText)

	info, err := os.Stat(path)
	require.NoError(t, err)

	key := CacheKey(path, info)
	assert.True(t, strings.HasPrefix(key, path+"|"))
	assert.Equal(t, 3, len(strings.Split(key, "|")))
}
