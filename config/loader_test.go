package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Cache struct {
		KeyPrefix     string        `mapstructure:"key_prefix"`
		RemoteTimeout time.Duration `mapstructure:"remote_timeout"`
	} `mapstructure:"cache"`
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestBuild_Priority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
server:
  port: 8080
cache:
  key_prefix: "feed:"
  remote_timeout: 50ms
`)
	writeFile(t, dir, "test.yaml", `
server:
  port: 8081
`)
	t.Setenv("APP_ENV", "test")
	t.Setenv("FEEDT_CACHE__KEY_PREFIX", "env:")

	loader, err := Build(Options{
		ConfigDir: dir,
		EnvPrefix: "FEEDT",
		Overrides: map[string]any{"server.port": 9000, "cache.remote_timeout": ""},
	})
	require.NoError(t, err)

	var cfg testConfig
	require.NoError(t, loader.Unmarshal(&cfg))
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "env:", cfg.Cache.KeyPrefix)
	assert.Equal(t, 50*time.Millisecond, cfg.Cache.RemoteTimeout)
	assert.Len(t, loader.GetLoadedFiles(), 2)
}

func TestFileSource_Missing(t *testing.T) {
	data, err := NewFileSource(filepath.Join(t.TempDir(), "none.yaml"), 10).Load()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileSource_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "server: [port")

	loader := NewLoader()
	loader.AddSource(NewFileSource(filepath.Join(dir, "config.yaml"), 10))
	assert.Error(t, loader.Load())
}

func TestFlattenUnflatten(t *testing.T) {
	flat := flattenMap("", map[string]any{
		"redis": map[string]any{"addr": "127.0.0.1:6379", "db": 1},
	})
	assert.Equal(t, "127.0.0.1:6379", flat["redis.addr"])

	nested := unflattenMap(flat)
	assert.Equal(t, 1, nested["redis"].(map[string]any)["db"])
}

type failing struct{}

func (failing) Validate() error { return errors.New("bad") }

type passing struct{}

func (passing) Validate() error { return nil }

func TestValidateAll(t *testing.T) {
	assert.NoError(t, ValidateAll(passing{}))
	assert.EqualError(t, ValidateAll(passing{}, failing{}), "bad")
}

func TestGetEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	assert.Equal(t, "dev", GetEnv())
	t.Setenv("ENV", "prod")
	assert.Equal(t, "prod", GetEnv())
}
