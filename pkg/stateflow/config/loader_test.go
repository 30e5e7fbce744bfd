package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/randalmurphal/stateflow/pkg/stateflow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nodeYAML = `
node_id: 0x050101012200
log_level: debug
store: /var/lib/lcbclock/clocks.db
sync_interval: 30s
alarm_period: 15m
clock:
  id: 01.01.00.00.01.01.00.00
  start: 2024-03-01T10:00:00Z
  rate: 2.5
  running: false
`

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(nodeYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.String("log_level", ""))
	assert.Equal(t, 30*time.Second, cfg.Duration("sync_interval", 0))
	assert.Equal(t, 2.5, cfg.Sub("clock").Float("rate", 0))
	assert.Equal(t, uint64(0x0101000001010000), cfg.Sub("clock").Uint64("id", 0))
}

func TestFromYAML_Invalid(t *testing.T) {
	_, err := config.FromYAML([]byte("clock: [unclosed"))
	assert.ErrorContains(t, err, "parse yaml")
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"clock": {"rate": -1, "start": 1700000000}}`))
	require.NoError(t, err)

	assert.Equal(t, -1.0, cfg.Sub("clock").Float("rate", 0))
	assert.Equal(t, int64(1700000000), cfg.Sub("clock").Time("start", 0))

	_, err = config.FromJSON([]byte(`{`))
	assert.ErrorContains(t, err, "parse json")
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "node.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(nodeYAML), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.String("log_level", ""))

	jsonPath := filepath.Join(dir, "node.JSON")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"store": "x.db"}`), 0o600))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "x.db", cfg.String("store", ""))

	tomlPath := filepath.Join(dir, "node.toml")
	require.NoError(t, os.WriteFile(tomlPath, nil, 0o600))
	_, err = config.FromFile(tomlPath)
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatFor(t *testing.T) {
	for path, want := range map[string]config.Format{
		"a.yaml": config.FormatYAML,
		"a.YML":  config.FormatYAML,
		"a.json": config.FormatJSON,
	} {
		got, err := config.FormatFor(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := config.FormatFor("a.ini")
	assert.Error(t, err)
}

func TestFromReader(t *testing.T) {
	cfg, err := config.FromReader(strings.NewReader("clock:\n  running: true\n"), config.FormatYAML)
	require.NoError(t, err)
	assert.True(t, cfg.Bool("clock.running", false))

	cfg, err = config.FromReader(strings.NewReader(""), config.FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, cfg.Raw())

	_, err = config.FromReader(strings.NewReader("{}"), config.Format("toml"))
	assert.ErrorContains(t, err, "unsupported config format")
}
