// internal/app/app_test.go
package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavekit/internal/version"
	"mavekit/internal/zoo"
)

func exec(args ...string) (int, string, string) {
	var out, errBuf bytes.Buffer
	code := Run(args, &out, &errBuf)
	return code, out.String(), errBuf.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := exec("version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "mavekit version "+version.Version+"\n", out)
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string][]string{
		"unknown command":   {"frobnicate"},
		"unknown flag":      {"generate", "--nope"},
		"extra argument":    {"fit", "--out", dir, "extra"},
		"bad window":        {"generate", "--out", dir, "--window", "5:2"},
		"unknown model":     {"generate", "--out", dir, "--model", "nope", "--num-sim", "10", "--seq-length", "20"},
		"unknown task":      {"generate", "--out", dir, "--task", "Gata1", "--num-sim", "10", "--seq-length", "20"},
		"bad solver":        {"fit", "--out", dir, "--solver", "sgd"},
		"bad gauge":         {"fit", "--out", dir, "--gauge", "zero"},
		"bad log format":    {"--log-format", "xml", "models"},
		"bad models output": {"models", "-o", "yaml"},
		"bad runs output":   {"runs", "--out", dir, "-o", "csv"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			code, _, stderr := exec(args...)
			assert.Equal(t, 2, code, "stderr: %s", stderr)
			assert.Contains(t, stderr, "error:")
		})
	}
}

func TestFitWithoutDatasetIsIOError(t *testing.T) {
	code, _, stderr := exec("fit", "--out", t.TempDir(), "--solver", "ridge")
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "load dataset")
}

func TestModels(t *testing.T) {
	code, out, _ := exec("models")
	require.Equal(t, 0, code)
	assert.Contains(t, out, zoo.DefaultModel)
	assert.Contains(t, out, "Oct4,Sox2,Klf4,Nanog")

	code, out, _ = exec("models", "-o", "json")
	require.Equal(t, 0, code)
	var views []modelView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "ACGT", views[0].Alphabet)
	assert.Equal(t, []string{"Oct4", "Sox2", "Klf4", "Nanog"}, views[0].Tasks)
}

func TestModelsCatalogAndExport(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`models:
  - name: remote
    kind: http
    url: http://localhost:9/
    tasks:
      - name: score
`), 0o644))

	export := filepath.Join(dir, "merged.yaml")
	code, _, stderr := exec("--catalog", catalog, "--log-level", "debug", "models", "--export", export)
	require.Equal(t, 0, code, stderr)

	cat, err := zoo.Load(export)
	require.NoError(t, err)
	assert.Equal(t, []string{zoo.DefaultModel, "remote"}, cat.Names())
	e, err := cat.Entry("remote")
	require.NoError(t, err)
	assert.Equal(t, "1m0s", e.Timeout)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "mavekit.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log:\n  format: xml\n"), 0o644))

	code, _, _ := exec("--config", cfg, "models")
	assert.Equal(t, 2, code)

	code, _, stderr := exec("--config", cfg, "--log-format", "json", "models")
	assert.Equal(t, 0, code, stderr)
}

func TestRunsEmptyDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	code, out, _ := exec("runs", "--out", dir, "-o", "json")
	require.Equal(t, 0, code)
	assert.JSONEq(t, "[]", out)
	assert.NoDirExists(t, dir)

	code, _, _ = exec("runs", "--out", dir, "abc")
	assert.Equal(t, 2, code)
}
