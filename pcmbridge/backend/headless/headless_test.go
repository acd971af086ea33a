package headless_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
	"github.com/valerio/go-pcmbridge/pcmbridge/backend/headless"
)

func TestHeadlessBackend(t *testing.T) {
	t.Run("pulls only while playing", func(t *testing.T) {
		var mu sync.Mutex
		var outputs int
		b := headless.New(
			headless.WithLimiter(headless.Unpaced),
			headless.WithOutput(func(buf []int16) {
				mu.Lock()
				outputs++
				mu.Unlock()
				assert.Equal(t, int16(7), buf[0])
			}))
		assert.Equal(t, "headless", b.Name())

		spec := backend.Spec{SampleRate: 48000, Channels: 2, Samples: 16}
		dev, err := b.Open(spec, func(buf []int16) {
			assert.Len(t, buf, 32)
			buf[0] = 7
		})
		require.NoError(t, err)
		hd := dev.(*headless.Device)

		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, hd.Pulls(), "device opens paused")

		require.NoError(t, dev.SetPaused(false))
		assert.Eventually(t, func() bool { return hd.Pulls() >= 10 }, time.Second, time.Millisecond)

		require.NoError(t, dev.SetPaused(true))
		require.NoError(t, dev.Close())
		require.NoError(t, dev.Close())

		pulls := hd.Pulls()
		mu.Lock()
		assert.Equal(t, int(pulls), outputs)
		mu.Unlock()
	})

	t.Run("paces pulls in real time", func(t *testing.T) {
		b := headless.New()
		// 240 frames at 48 kHz is 5ms per buffer
		spec := backend.Spec{SampleRate: 48000, Channels: 2, Samples: 240}
		dev, err := b.Open(spec, func([]int16) {})
		require.NoError(t, err)
		defer dev.Close()

		require.NoError(t, dev.SetPaused(false))
		time.Sleep(50 * time.Millisecond)
		assert.LessOrEqual(t, dev.(*headless.Device).Pulls(), uint64(12))
	})

	t.Run("rejects invalid spec", func(t *testing.T) {
		b := headless.New()
		_, err := b.Open(backend.Spec{SampleRate: 0, Channels: 2, Samples: 16}, func([]int16) {})
		assert.Error(t, err)

		_, err = b.Open(backend.Spec{SampleRate: 48000, Channels: 2, Samples: 16}, nil)
		assert.Error(t, err)
	})
}
