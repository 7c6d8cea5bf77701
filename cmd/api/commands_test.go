package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("STORAGE_DIR", "/from/env")

	cfg, err := loadConfig(&flags{addr: ":7000", databaseURL: "file::memory:"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "file::memory:", cfg.DatabaseURL)
	assert.Equal(t, "/from/env", cfg.StorageDir)
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "images.db")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--database-url", dbPath, "--storage-dir", t.TempDir()})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, dbPath)
}

func TestRootCommand_UnknownSubcommand(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"nope"})
	assert.Error(t, cmd.Execute())
}
