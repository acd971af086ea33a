package wavfile_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend/headless"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend/wavfile"
)

func decode(t *testing.T, path string) (*wav.Decoder, []int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	d := wav.NewDecoder(f)
	require.True(t, d.IsValidFile())
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	return d, buf.Data
}

func TestRecordsPulledAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	b := wavfile.New(path, wavfile.WithLimiter(headless.Unpaced))
	assert.Equal(t, "wav", b.Name())

	spec := backend.Spec{SampleRate: 22050, Channels: 2, Samples: 8}
	var calls atomic.Int32
	dev, err := b.Open(spec, func(buf []int16) {
		n := calls.Add(1)
		for i := range buf {
			buf[i] = int16(int(n)*100 + i)
		}
	})
	require.NoError(t, err)

	require.NoError(t, dev.SetPaused(false))
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, dev.Close())
	require.NoError(t, dev.Close())

	d, data := decode(t, path)
	assert.Equal(t, uint32(22050), d.SampleRate)
	assert.Equal(t, uint16(2), d.NumChans)
	assert.Equal(t, uint16(16), d.BitDepth)

	require.Equal(t, int(calls.Load())*spec.BufferLen(), len(data))
	for i := 0; i < spec.BufferLen(); i++ {
		assert.Equal(t, 100+i, data[i])
		assert.Equal(t, 200+i, data[spec.BufferLen()+i])
	}
}

func TestReopenWritesNewSegment(t *testing.T) {
	dir := t.TempDir()
	b := wavfile.New(filepath.Join(dir, "take.wav"), wavfile.WithLimiter(headless.Unpaced))
	spec := backend.Spec{SampleRate: 11025, Channels: 2, Samples: 4}

	for i := 0; i < 2; i++ {
		dev, err := b.Open(spec, func([]int16) {})
		require.NoError(t, err)
		require.NoError(t, dev.Close())
	}

	assert.Equal(t, []string{
		filepath.Join(dir, "take.wav"),
		filepath.Join(dir, "take-1.wav"),
	}, b.Segments())
	for _, p := range b.Segments() {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestOpenFailsOnBadPath(t *testing.T) {
	b := wavfile.New(filepath.Join(t.TempDir(), "missing", "out.wav"))
	_, err := b.Open(backend.Spec{SampleRate: 48000, Channels: 2, Samples: 16}, func([]int16) {})
	assert.Error(t, err)
}
