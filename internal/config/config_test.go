package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	got := Config{MaxItems: -1, PollInterval: 0, CycleLimit: 3, CycleTimeout: -time.Second}.Normalize()
	assert.Equal(t, Config{
		MaxItems:     50,
		PollInterval: 500 * time.Millisecond,
		CycleLimit:   3,
		CycleTimeout: 2 * time.Second,
	}, got)
}

func TestStatic(t *testing.T) {
	assert.Equal(t, Defaults(), Static{}.Current())
	assert.Equal(t, 7, Static{CycleLimit: 7}.Current().CycleLimit)
}

func TestViper_ReadsEachCall(t *testing.T) {
	v := viper.New()
	src := Viper{V: v}
	assert.Equal(t, Defaults(), src.Current())

	v.Set(KeyMaxItems, 5)
	v.Set(KeyPollInterval, "250ms")
	v.Set(KeyCycleLimit, 4)
	v.Set(KeyCycleTimeout, "1s")
	assert.Equal(t, Config{
		MaxItems:     5,
		PollInterval: 250 * time.Millisecond,
		CycleLimit:   4,
		CycleTimeout: time.Second,
	}, src.Current())
}

func TestViper_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
max-items = 20
poll-interval = "1s"
cycle-limit = 0
cycle-timeout = "3s"
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	assert.Equal(t, Config{
		MaxItems:     20,
		PollInterval: time.Second,
		CycleLimit:   10,
		CycleTimeout: 3 * time.Second,
	}, Viper{V: v}.Current())
}

func TestTOML(t *testing.T) {
	out, err := Defaults().TOML()
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "max-items = 50")
	assert.Regexp(t, `poll-interval = ['"]500ms['"]`, s)
	assert.Contains(t, s, "cycle-limit = 10")
	assert.Regexp(t, `cycle-timeout = ['"]2s['"]`, s)
}
