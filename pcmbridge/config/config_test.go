package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    func(v *Values)
		wantErr bool
	}{
		{
			name: "empty keeps defaults",
			env:  map[string]string{},
			want: func(*Values) {},
		},
		{
			name: "all options",
			env: map[string]string{
				EnvThrottle: "250",
				EnvSpeedUp:  "true",
				EnvLink:     "1",
				EnvDevice:   " oto ",
				EnvRate:     "22050",
				EnvBufferMS: "40",
			},
			want: func(v *Values) {
				v.Throttle = 250
				v.SpeedUp = true
				v.LinkActive = true
				v.Device = "oto"
				v.SampleRate = 22050
				v.Buffer = 40 * time.Millisecond
			},
		},
		{
			name: "out of range values keep defaults",
			env: map[string]string{
				EnvThrottle: "5000",
				EnvRate:     "32000",
				EnvBufferMS: "0",
			},
			want: func(*Values) {},
		},
		{
			name:    "malformed throttle",
			env:     map[string]string{EnvThrottle: "fast"},
			want:    func(*Values) {},
			wantErr: true,
		},
		{
			name:    "malformed bool is reported alongside valid values",
			env:     map[string]string{EnvSpeedUp: "maybe", EnvThrottle: "0"},
			want:    func(v *Values) { v.Throttle = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := Defaults()
			tt.want(&want)

			got, err := Parse(tt.env)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Defaults().Validate())

	v := Defaults()
	v.Throttle = MaxThrottle + 1
	assert.ErrorIs(t, v.Validate(), ErrInvalid)

	v = Defaults()
	v.SampleRate = 8000
	assert.ErrorIs(t, v.Validate(), ErrInvalid)

	v = Defaults()
	v.Buffer = 2 * time.Second
	assert.ErrorIs(t, v.Validate(), ErrInvalid)

	v = Defaults()
	v.Device = ""
	assert.ErrorIs(t, v.Validate(), ErrInvalid)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audio.env")
	require.NoError(t, os.WriteFile(path, []byte("PCMBRIDGE_THROTTLE=50\nPCMBRIDGE_DEVICE=wav\n"), 0o644))

	t.Run("file values", func(t *testing.T) {
		v, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, uint16(50), v.Throttle)
		assert.Equal(t, "wav", v.Device)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv(EnvThrottle, "75")
		v, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, uint16(75), v.Throttle)
		assert.Equal(t, "wav", v.Device)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.env"))
		assert.Error(t, err)
	})
}

func TestStore(t *testing.T) {
	s := NewStore(Defaults())
	assert.Equal(t, Defaults(), s.Snapshot())

	var changed []Option
	s.OnChange(func(o Option) { changed = append(changed, o) })

	require.NoError(t, s.SetThrottle(200))
	require.NoError(t, s.SetThrottle(200))
	s.SetSpeedUp(true)
	s.SetLinkActive(true)
	s.SetLinkActive(true)
	s.SetDevice("sdl2")
	assert.ErrorIs(t, s.SetThrottle(MaxThrottle+1), ErrInvalid)

	assert.Equal(t, []Option{OptThrottle, OptSpeedUp, OptLinkActive, OptDevice}, changed)
	assert.Equal(t, uint16(200), s.Throttle())
	assert.True(t, s.SpeedUp())
	assert.True(t, s.LinkActive())
	assert.Equal(t, "sdl2", s.Device())
	assert.Equal(t, "throttle", OptThrottle.String())
	assert.Equal(t, "Option(42)", Option(42).String())
}

func TestStore_ObserverCanRegisterObserver(t *testing.T) {
	s := NewStore(Defaults())

	var late int
	s.OnChange(func(Option) {
		s.OnChange(func(Option) { late++ })
	})

	s.SetSpeedUp(true)
	assert.Zero(t, late, "observers added during a notification run from the next one")

	s.SetSpeedUp(false)
	assert.Equal(t, 1, late)
}
