package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Url      string `json:"url"`
	Database string `json:"database"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
	// comments are allowed
	url: "https://example.com",
	database: "Banks.db",
}`), 0644)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "https://example.com", config.Url)
	require.Equal(t, "Banks.db", config.Database)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(
		filepath.Join(dir, "config.json5"),
		[]byte(`{url: "https://example.com", database: "Banks.db"}`),
		0644,
	)
	require.NoError(t, err)
	err = os.WriteFile(
		filepath.Join(dir, "config.local.json5"),
		[]byte(`{database: "local.db"}`),
		0644,
	)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com", config.Url)
	require.Equal(t, "local.db", config.Database)
}

func TestReadConfigNotFound(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalVariant(t *testing.T) {
	require.Equal(t, "config.local.json5", localVariant("config.json5"))
	require.Equal(t, filepath.Join("a", "b.local.json5"), localVariant(filepath.Join("a", "b.json5")))
}
