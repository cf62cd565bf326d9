package flagx

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serveFlags struct {
	Host     string        `flag:"host" config:"server.host" usage:"监听地址"`
	Port     int           `flag:"port,p" config:"server.port" default:"8080" usage:"监听端口"`
	Remote   bool          `flag:"remote" config:"cache.remote_enabled" default:"true"`
	Timeout  time.Duration `flag:"timeout" config:"server.shutdown_timeout" default:"10s"`
	Skip     []string      `flag:"skip" default:"/healthz,/readyz"`
	Verbose  bool          `flag:"verbose,v"`
	internal string        `flag:"internal"`
}

func newFlagSet(t *testing.T, target any) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(fs, target))
	return fs
}

func TestBindFlags_Defaults(t *testing.T) {
	var f serveFlags
	fs := newFlagSet(t, &f)

	assert.NotNil(t, fs.ShorthandLookup("p"))
	assert.NotNil(t, fs.ShorthandLookup("v"))
	assert.Nil(t, fs.Lookup("internal"))
	assert.Equal(t, "监听端口", fs.Lookup("port").Usage)

	require.NoError(t, fs.Parse(nil))
	require.NoError(t, ParseFlags(fs, &f))
	assert.Equal(t, 8080, f.Port)
	assert.True(t, f.Remote)
	assert.Equal(t, 10*time.Second, f.Timeout)
	assert.Equal(t, []string{"/healthz", "/readyz"}, f.Skip)
	assert.False(t, f.Verbose)
}

func TestParseFlags_CommandLine(t *testing.T) {
	var f serveFlags
	fs := newFlagSet(t, &f)

	require.NoError(t, fs.Parse([]string{"-p", "9000", "--host=0.0.0.0", "--remote=false", "--timeout", "3s", "-v", "--skip", "/a"}))
	require.NoError(t, ParseFlags(fs, &f))

	assert.Equal(t, "0.0.0.0", f.Host)
	assert.Equal(t, 9000, f.Port)
	assert.False(t, f.Remote)
	assert.Equal(t, 3*time.Second, f.Timeout)
	assert.Equal(t, []string{"/a"}, f.Skip)
	assert.True(t, f.Verbose)
}

func TestOverrides_OnlyChangedFlags(t *testing.T) {
	var f serveFlags
	fs := newFlagSet(t, &f)

	require.NoError(t, fs.Parse([]string{"--port", "9100", "--remote=false", "-v"}))
	got, err := Overrides(fs, &f)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"server.port":          9100,
		"cache.remote_enabled": false,
	}, got)
}

func TestOverrides_NothingSet(t *testing.T) {
	var f serveFlags
	fs := newFlagSet(t, &f)
	require.NoError(t, fs.Parse(nil))

	got, err := Overrides(fs, &f)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTargetValidation(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var f serveFlags
	var s string

	assert.ErrorContains(t, BindFlags(fs, f), "pointer to struct")
	assert.ErrorContains(t, ParseFlags(fs, &s), "pointer to struct")
	_, err := Overrides(fs, 42)
	assert.ErrorContains(t, err, "pointer to struct")
}

func TestBindFlags_Unsupported(t *testing.T) {
	type bad struct {
		Ratio float32 `flag:"ratio"`
	}
	err := BindFlags(pflag.NewFlagSet("test", pflag.ContinueOnError), &bad{})
	assert.ErrorContains(t, err, "unsupported field type")

	type badDefault struct {
		Port int `flag:"port" default:"abc"`
	}
	err = BindFlags(pflag.NewFlagSet("test", pflag.ContinueOnError), &badDefault{})
	assert.ErrorContains(t, err, "default")
}
