package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shubham184/fabric-compiler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fabric.yaml"), []byte(content), 0o644))
}

func TestLoadAppliesDefaultsWhenFileAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := config.Load(dir, config.Settings{})
	require.NoError(t, err)
	assert.Equal(t, "build", s.OutDir)
	assert.Equal(t, "postgres", s.Dialect)
	assert.Equal(t, "dev", s.Env)
	assert.Equal(t, "dry-run", s.Mode)
}

func TestLoadReadsFabricYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "dialect: spark\nenv: staging\n")

	s, err := config.Load(dir, config.Settings{})
	require.NoError(t, err)
	assert.Equal(t, "spark", s.Dialect)
	assert.Equal(t, "staging", s.Env)
	assert.Equal(t, "build", s.OutDir) // default still applies
}

func TestLoadOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "dialect: spark\n")

	s, err := config.Load(dir, config.Settings{Dialect: "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", s.Dialect)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "bogus_key: 1\n")

	_, err := config.Load(dir, config.Settings{})
	require.Error(t, err)
}
