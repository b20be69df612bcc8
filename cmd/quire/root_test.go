package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/config"
)

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "quire version "+quire.Version+"\n", out.String())
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quire.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7000\"\nstore:\n  kind: file\n"), 0644))

	require.NoError(t, serveCmd.ParseFlags([]string{"--config", path, "--store", "memory", "--metrics"}))
	t.Cleanup(func() {
		for _, name := range []string{"config", "store", "metrics"} {
			f := serveCmd.Flags().Lookup(name)
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})

	cfg, err := loadConfig(serveCmd)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr, "file value kept")
	assert.Equal(t, config.StoreMemory, cfg.Store.Kind, "flag wins")
	assert.True(t, cfg.Metrics)
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	require.NoError(t, inspectCmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}))
	t.Cleanup(func() {
		f := inspectCmd.Flags().Lookup("config")
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
	_, err := loadConfig(inspectCmd)
	assert.Error(t, err)
}
