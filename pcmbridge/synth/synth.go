// Package synth is a small stereo tone generator standing in for an emulated
// sound chip. It produces square and noise voices with volume envelopes,
// mixed and clamped to signed 16-bit frames at a fixed native rate.
package synth

import (
	"fmt"
	"math"
)

const (
	maxSample = 32767
	minSample = -32768

	// sampleAmplitude scales a 4-bit volume to the 16-bit range.
	sampleAmplitude = 512
	maxVolume       = 15

	// envelopeHz is how often envelopes step.
	envelopeHz = 64

	lfsrInitial = 0x7FFF
)

// Duty cycles for square voices, eighth steps high.
var dutyPatterns = [4]uint8{
	0b00000001, // 12.5%
	0b10000001, // 25%
	0b10000111, // 50%
	0b01111110, // 75%
}

type Kind int

const (
	Square Kind = iota
	Noise
)

// Pan selects which output channels a voice is mixed into.
type Pan int

const (
	Center Pan = iota
	Left
	Right
)

// Voice describes one generator.
type Voice struct {
	Kind   Kind
	Freq   float64 // Hz; for noise, the shift rate
	Duty   uint8   // square only, index into the duty table
	Volume uint8   // 0-15
	Pan    Pan

	// Envelope steps the volume every EnvelopePeriod envelope ticks,
	// up when EnvelopeUp is set. A zero period holds the volume.
	EnvelopePeriod uint8
	EnvelopeUp     bool
	// Retrigger restores the initial volume every Retrigger envelope ticks.
	Retrigger int
}

type voiceState struct {
	Voice
	volume        uint8
	phase         float64
	envelopeTimer uint8
	sinceTrigger  int
	lfsr          uint16
	muted         bool
}

// Synth mixes its voices into interleaved stereo frames.
type Synth struct {
	rate            int
	voices          []voiceState
	envelopeCounter int
	framesPerTick   int
	generated       uint64
}

func New(rate int, voices ...Voice) (*Synth, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", rate)
	}
	s := &Synth{
		rate:          rate,
		framesPerTick: max(1, rate/envelopeHz),
	}
	for _, v := range voices {
		if v.Volume > maxVolume {
			return nil, fmt.Errorf("voice volume %d above %d", v.Volume, maxVolume)
		}
		s.voices = append(s.voices, voiceState{Voice: v, volume: v.Volume, lfsr: lfsrInitial})
	}
	return s, nil
}

// Demo returns a two-note square chord over a ticking noise voice.
func Demo() []Voice {
	return []Voice{
		{Kind: Square, Freq: 261.63, Duty: 2, Volume: 10, Pan: Left},
		{Kind: Square, Freq: 329.63, Duty: 1, Volume: 8, Pan: Right},
		{Kind: Noise, Freq: 8000, Volume: 12, EnvelopePeriod: 1, Retrigger: 32},
	}
}

func (s *Synth) Rate() int {
	return s.rate
}

// Generated returns the number of frames produced so far.
func (s *Synth) Generated() uint64 {
	return s.generated
}

// Generate fills dst with len(dst)/2 stereo frames.
func (s *Synth) Generate(dst []int16) {
	for i := 0; i+1 < len(dst); i += 2 {
		l, r := s.mix()
		dst[i], dst[i+1] = l, r
		s.generated++

		s.envelopeCounter++
		if s.envelopeCounter >= s.framesPerTick {
			s.envelopeCounter = 0
			s.stepEnvelopes()
		}
	}
}

// GetSamples returns count freshly generated stereo frames.
func (s *Synth) GetSamples(count int) []int16 {
	out := make([]int16, count*2)
	s.Generate(out)
	return out
}

// ToggleVoice mutes or unmutes voice i.
func (s *Synth) ToggleVoice(i int) {
	if i >= 0 && i < len(s.voices) {
		s.voices[i].muted = !s.voices[i].muted
	}
}

// SoloVoice mutes every voice but i.
func (s *Synth) SoloVoice(i int) {
	for j := range s.voices {
		s.voices[j].muted = j != i
	}
}

// VoiceStatus reports which voices are audible.
func (s *Synth) VoiceStatus() []bool {
	status := make([]bool, len(s.voices))
	for i := range s.voices {
		status[i] = !s.voices[i].muted
	}
	return status
}

func (s *Synth) mix() (int16, int16) {
	var left, right int32
	for i := range s.voices {
		v := &s.voices[i]
		if v.muted {
			continue
		}
		sample := int32(s.sample(v))
		if v.Pan != Right {
			left += sample
		}
		if v.Pan != Left {
			right += sample
		}
	}
	return clamp(left), clamp(right)
}

func clamp(v int32) int16 {
	if v > maxSample {
		return maxSample
	} else if v < minSample {
		return minSample
	}
	return int16(v)
}

func (s *Synth) sample(v *voiceState) int16 {
	if v.volume == 0 || v.Freq <= 0 {
		return 0
	}

	step := v.Freq / float64(s.rate)
	var high bool

	switch v.Kind {
	case Square:
		v.phase += step
		v.phase -= math.Floor(v.phase)
		eighth := uint8(v.phase * 8)
		high = (dutyPatterns[v.Duty&3]>>(7-eighth))&1 == 1
	case Noise:
		v.phase += step
		for v.phase >= 1 {
			v.phase--
			feedback := (v.lfsr & 1) ^ ((v.lfsr >> 1) & 1)
			v.lfsr = (v.lfsr >> 1) | (feedback << 14)
		}
		high = v.lfsr&1 == 0
	}

	amp := int16(v.volume) * sampleAmplitude
	if high {
		return amp
	}
	return -amp
}

func (s *Synth) stepEnvelopes() {
	for i := range s.voices {
		v := &s.voices[i]

		if v.Retrigger > 0 {
			v.sinceTrigger++
			if v.sinceTrigger >= v.Retrigger {
				v.sinceTrigger = 0
				v.volume = v.Volume
				v.envelopeTimer = 0
				continue
			}
		}

		if v.EnvelopePeriod == 0 {
			continue
		}
		v.envelopeTimer++
		if v.envelopeTimer < v.EnvelopePeriod {
			continue
		}
		v.envelopeTimer = 0
		if v.EnvelopeUp && v.volume < maxVolume {
			v.volume++
		} else if !v.EnvelopeUp && v.volume > 0 {
			v.volume--
		}
	}
}
