package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	OutputDir string `json:"output_dir"`
	Driver    string `json:"driver"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fxhistory.json5")
	writeFile(t, path, `{output_dir: "data", driver: "chrome"}`)

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "data", cfg.OutputDir)
	require.Equal(t, "chrome", cfg.Driver)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fxhistory.json5"), `{output_dir: "data", driver: "chrome"}`)
	writeFile(t, filepath.Join(dir, "fxhistory.local.json5"), `{driver: "static"}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "fxhistory.json5"))
	require.NoError(t, err)
	require.Equal(t, "data", cfg.OutputDir)
	require.Equal(t, "static", cfg.Driver)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
