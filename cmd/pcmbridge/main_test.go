package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/valerio/go-pcmbridge/pcmbridge/config"
)

func clearOptionEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvThrottle, config.EnvSpeedUp, config.EnvLink, config.EnvDevice, config.EnvRate, config.EnvBufferMS} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func loadWithArgs(t *testing.T, args ...string) (config.Values, error) {
	t.Helper()
	var values config.Values
	var loadErr error

	app := cli.NewApp()
	app.Flags = commonFlags
	app.Action = func(c *cli.Context) error {
		values, loadErr = loadValues(c)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"pcmbridge"}, args...)))
	return values, loadErr
}

func TestThrottleFlag(t *testing.T) {
	tests := []struct {
		in      int
		want    uint16
		wantErr bool
	}{
		{in: 0, want: 0},
		{in: 100, want: 100},
		{in: config.MaxThrottle, want: config.MaxThrottle},
		{in: -1, wantErr: true},
		{in: config.MaxThrottle + 1, wantErr: true},
		{in: 65536, wantErr: true},
	}

	for _, tt := range tests {
		got, err := throttleFlag(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, config.ErrInvalid, "throttle %d", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLoadValues_RejectsWrappingThrottle(t *testing.T) {
	clearOptionEnv(t)
	chdir(t, t.TempDir())

	_, err := loadWithArgs(t, "--throttle", "65536")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = loadWithArgs(t, "--throttle", "-5")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestLoadValues_Precedence(t *testing.T) {
	clearOptionEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(config.EnvThrottle+"=50\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.env"), []byte(config.EnvThrottle+"=70\n"), 0o644))
	chdir(t, dir)

	values, err := loadWithArgs(t)
	require.NoError(t, err)
	assert.Equal(t, uint16(50), values.Throttle, "./.env is read by default")

	values, err = loadWithArgs(t, "--env", "other.env")
	require.NoError(t, err)
	assert.Equal(t, uint16(70), values.Throttle, "--env replaces ./.env")

	values, err = loadWithArgs(t, "--env", "other.env", "--throttle", "30")
	require.NoError(t, err)
	assert.Equal(t, uint16(30), values.Throttle, "flags win over files")

	_, present := os.LookupEnv(config.EnvThrottle)
	assert.False(t, present, "files must not leak into the process environment")
}
