package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("workers", 0, "")
	fs.String("method", "clip", "")
	fs.Float64("latitude", 0, "")
	fs.Float64("longitude", 0, "")
	fs.Bool("skip-unresolved", false, "")
	fs.String("output", "", "")
	return fs
}

func TestDefaults(t *testing.T) {
	t.Cleanup(Reset)
	t.Chdir(t.TempDir())

	cfg, err := Load("", testFlags())
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "clip", cfg.Solar.Method)
	assert.False(t, cfg.SkipUnresolved)
	assert.False(t, cfg.Climate.HasLocation())
	assert.Empty(t, FileUsed())
}

func TestPrecedence(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(`
solar:
  method: rays
  workers: 2
climate:
  zone: B3
log:
  level: debug
`), 0666))
	t.Setenv("ENVCONV_SOLAR_WORKERS", "4")
	t.Setenv("ENVCONV_SKIP_UNRESOLVED", "true")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--workers", "8", "--latitude", "28.3", "--longitude", "-16.4", "--output", "x.json"}))
	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, DefaultFile, FileUsed())
	assert.Equal(t, "rays", cfg.Solar.Method, "file over defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "B3", cfg.Climate.Zone)
	assert.True(t, cfg.SkipUnresolved, "env over defaults")
	assert.Equal(t, 8, cfg.Solar.Workers, "flags over env over file")
	require.True(t, cfg.Climate.HasLocation())
	assert.Equal(t, 28.3, *cfg.Climate.Latitude)
}

func TestExplicitFile(t *testing.T) {
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solar: {cache: /tmp/envconv}\n"), 0666))
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/envconv", cfg.Solar.Cache)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "reading config file")
}

func TestValidate(t *testing.T) {
	t.Cleanup(Reset)
	t.Chdir(t.TempDir())
	t.Setenv("ENVCONV_LOG_FORMAT", "xml")
	t.Setenv("ENVCONV_CLIMATE_LATITUDE", "40")
	_, err := Load("", nil)
	assert.ErrorContains(t, err, "log.format")
	assert.ErrorContains(t, err, "set together")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "solar.method", envKey("ENVCONV_SOLAR_METHOD"))
	assert.Equal(t, "climate.table", envKey("ENVCONV_CLIMATE_TABLE"))
	assert.Equal(t, "skip_unresolved", envKey("ENVCONV_SKIP_UNRESOLVED"))
}
