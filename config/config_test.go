package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "vsixsign.yml")
	require.NoError(t, os.WriteFile(fpath, []byte(
		"certificate: /keys/release.pfx\n"+
			"timestamp: http://timestamp.example.com\n"+
			"file-digest: sha384\n"), 0600))
	cfg, err := ReadFile(fpath)
	require.NoError(t, err)
	assert.Equal(t, "/keys/release.pfx", cfg.Certificate)
	assert.Equal(t, "http://timestamp.example.com", cfg.TimestampURL)
	assert.Equal(t, "sha384", cfg.FileDigest)
	assert.Equal(t, "", cfg.TimestampDigest)
	assert.Equal(t, fpath, cfg.Path)
}

func TestLoadMissingExplicit(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
