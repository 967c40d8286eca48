package analyzer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"finlint/internal/config"
	"finlint/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testdata(parts ...string) string {
	return filepath.Join(append([]string{"..", "..", "testdata"}, parts...)...)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScanFilesKeepsOrderAndIsolatesFailures(t *testing.T) {
	a := NewAnalyzer(config.DefaultConfig(), nil)
	files := []string{
		testdata("python", "orders.py"),
		filepath.Join(t.TempDir(), "missing.py"),
		testdata("javascript", "users.js"),
		testdata("java", "OrderService.java"),
	}

	report, err := a.ScanFiles(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	for i, f := range files {
		assert.Equal(t, f, report.Results[i].FilePath)
	}

	py := report.Results[0]
	assert.Nil(t, py.Err)
	assert.Equal(t, []string{"PY001", "PY002", "PY003", "PY004"}, findingIDs(py.Findings))

	missing := report.Results[1]
	require.NotNil(t, missing.Err)
	assert.Equal(t, models.ResourceAccessFailure, missing.Err.Kind)
	assert.ErrorIs(t, missing.Err, os.ErrNotExist)

	assert.Equal(t, []string{"JS002", "JS001"}, findingIDs(report.Results[2].Findings))
	assert.Equal(t, []string{"JAVA001"}, findingIDs(report.Results[3].Findings))

	assert.Equal(t, 4, report.FilesScanned)
	assert.Equal(t, 3, report.FilesWithFindings)
	assert.Equal(t, 7, report.TotalFindings)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Equal(t, 7, report.Summary.FindingsCount)
	assert.NotEmpty(t, report.RunID)
}

func findingIDs(findings []models.Finding) []string {
	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.RuleID)
	}
	return ids
}

func TestScanFileTooLarge(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Files.MaxFileSize = 1
	path := writeFile(t, t.TempDir(), "big.py", "x = 1\n"+strings.Repeat("#", 2048))

	result := NewAnalyzer(cfg, nil).ScanFile(path)
	require.NotNil(t, result.Err)
	assert.Equal(t, models.ResourceAccessFailure, result.Err.Kind)
	assert.Contains(t, result.Err.Error(), "max_file_size")
}

func TestScanFileDirectory(t *testing.T) {
	result := NewAnalyzer(config.DefaultConfig(), nil).ScanFile(t.TempDir())
	require.NotNil(t, result.Err)
	assert.Equal(t, models.ResourceAccessFailure, result.Err.Kind)
}

func TestScanFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAnalyzer(config.DefaultConfig(), nil).ScanFiles(ctx, []string{testdata("python", "orders.py")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanReader(t *testing.T) {
	a := NewAnalyzer(config.DefaultConfig(), nil)
	result := a.ScanReader(strings.NewReader(`cursor.execute("SELECT * FROM users")`), "<stdin>", models.LanguagePython)
	assert.Equal(t, "<stdin>", result.FilePath)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "PY004", result.Findings[0].RuleID)
}

func TestScanPathsWalksDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app/jobs.py", "for x in xs:\n    requests.get(x)\n")
	writeFile(t, dir, "app/worker.js", "for (const x of xs) {\n  fetch(x);\n}\n")
	writeFile(t, dir, "node_modules/lib/index.js", "for (const x of xs) {\n  fetch(x);\n}\n")
	writeFile(t, dir, "generated/api.py", "for x in xs:\n    requests.get(x)\n")
	writeFile(t, dir, "README.md", "for x in xs: requests.get(x)\n")

	cfg := config.DefaultConfig()
	cfg.Files.Exclude = append(cfg.Files.Exclude, "generated/**")
	report, err := NewAnalyzer(cfg, nil).ScanPaths(context.Background(), []string{dir})
	require.NoError(t, err)

	var scanned []string
	for _, r := range report.Results {
		rel, _ := filepath.Rel(dir, r.FilePath)
		scanned = append(scanned, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"app/jobs.py", "app/worker.js"}, scanned)
	assert.Equal(t, 2, report.TotalFindings)
}

func TestCollectFilesLanguageFilterAndExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	py := writeFile(t, dir, "a.py", "x = 1\n")
	writeFile(t, dir, "b.js", "let x = 1\n")
	notes := writeFile(t, dir, "notes.txt", "hello\n")

	cfg := config.DefaultConfig()
	cfg.Analysis.Languages = []string{"python"}
	files, unreadable, err := CollectFiles([]string{dir, notes}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{py, notes}, files)
	assert.Empty(t, unreadable)

	_, _, err = CollectFiles([]string{filepath.Join(dir, "nope")}, cfg)
	assert.Error(t, err)
}

func TestCollectFilesInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/a.py", "x = 1\n")
	writeFile(t, dir, "scripts/b.py", "x = 1\n")

	cfg := config.DefaultConfig()
	cfg.Files.Include = []string{"src/**"}
	files, _, err := CollectFiles([]string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.py", filepath.Base(files[0]))
}

// denyDir makes the walker report a read error for directories named name.
func denyDir(t *testing.T, name string) {
	t.Helper()
	walkDir = func(root string, fn fs.WalkDirFunc) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() && d.Name() == name {
				// The directory itself is visited, then reading it fails.
				if ret := fn(path, d, nil); ret != nil {
					return ret
				}
				return fn(path, d, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission})
			}
			return fn(path, d, err)
		})
	}
	t.Cleanup(func() { walkDir = filepath.WalkDir })
}

func TestScanPathsSkipsUnreadableDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app/jobs.py", "for x in xs:\n    requests.get(x)\n")
	writeFile(t, dir, "locked/secret.py", "for x in xs:\n    requests.get(x)\n")
	writeFile(t, dir, "zz/worker.js", "for (const x of xs) {\n  fetch(x);\n}\n")
	denyDir(t, "locked")

	report, err := NewAnalyzer(config.DefaultConfig(), nil).ScanPaths(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	assert.Equal(t, "jobs.py", filepath.Base(report.Results[0].FilePath))
	assert.Equal(t, "worker.js", filepath.Base(report.Results[1].FilePath))
	assert.Equal(t, 2, report.TotalFindings)

	denied := report.Results[2]
	assert.Equal(t, filepath.Join(dir, "locked"), denied.FilePath)
	require.NotNil(t, denied.Err)
	assert.Equal(t, models.ResourceAccessFailure, denied.Err.Kind)
	assert.ErrorIs(t, denied.Err, fs.ErrPermission)
	assert.Empty(t, denied.Findings)
	assert.Equal(t, 1, report.ErrorCount)
}

func TestCollectFilesFailsOnUnreadableRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")
	denyDir(t, filepath.Base(dir))

	_, _, err := CollectFiles([]string{dir}, config.DefaultConfig())
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestCleanFileHasNoFindings(t *testing.T) {
	result := NewAnalyzer(config.DefaultConfig(), nil).ScanFile(testdata("clean", "totals.py"))
	assert.Nil(t, result.Err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, models.LanguagePython, result.Language)
}
