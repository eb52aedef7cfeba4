package config_test

import (
	"path/filepath"
	"testing"

	"github.com/mechiko/pdfexec/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfiguration(t *testing.T) {
	c := config.NewDefaultConfiguration()
	require.Equal(t, 10, c.XRefCacheLifetime)
	require.True(t, c.ErrorOnFlateChecksumFailure)
	require.Equal(t, 256, c.XRefCacheSize())
}

func TestXRefCacheSizeOverride(t *testing.T) {
	c := config.NewDefaultConfiguration()
	c.OptimizedPDFCacheSize = 512
	require.Equal(t, 512, c.XRefCacheSize())
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yml")

	c := config.NewDefaultConfiguration()
	c.XRefCacheLifetime = 20
	c.OptimizedPDFCacheSize = 1024
	c.ErrorOnPDFRepair = true

	require.NoError(t, config.Write(c, path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 20, loaded.XRefCacheLifetime)
	require.Equal(t, 1024, loaded.OptimizedPDFCacheSize)
	require.True(t, loaded.ErrorOnPDFRepair)
	require.True(t, loaded.ErrorOnFlateChecksumFailure, "fields written with their default value load back unchanged")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
