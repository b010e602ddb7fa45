// Package audio holds the in-memory audio representation and the
// preprocessing applied before transcription.
package audio

import "errors"

var (
	ErrEmptyBuffer       = errors.New("audio buffer has no samples")
	ErrInvalidSampleRate = errors.New("audio sample rate must be positive")
)

// Buffer is raw PCM audio handed between channels, the preprocessor and
// the transcription adapter. Samples are float32 in [-1, 1], interleaved
// when Channels > 1.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Validate reports whether the buffer can be processed at all.
func (b *Buffer) Validate() error {
	if b == nil || len(b.Samples) == 0 {
		return ErrEmptyBuffer
	}
	if b.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	return nil
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	ch := b.Channels
	if ch <= 0 {
		ch = 1
	}
	return float64(len(b.Samples)) / float64(ch) / float64(b.SampleRate)
}

// Mono returns a single-channel view of the buffer, downmixing
// interleaved frames when necessary.
func (b *Buffer) Mono() *Buffer {
	if b.Channels <= 1 {
		return b
	}
	return &Buffer{
		Samples:    downmixInterleaved(b.Samples, b.Channels),
		SampleRate: b.SampleRate,
		Channels:   1,
	}
}

func downmixInterleaved(x []float32, ch int) []float32 {
	frames := len(x) / ch
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += x[i*ch+c]
		}
		out[i] = sum / float32(ch)
	}
	return out
}

func resampleLinear(x []float32, from, to int) []float32 {
	if from == to || len(x) == 0 {
		return x
	}
	ratio := float64(from) / float64(to)
	n := int(float64(len(x)) / ratio)
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(x)-1 {
			out[i] = x[len(x)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = x[j]*(1-frac) + x[j+1]*frac
	}
	return out
}

// Resample returns the buffer converted to the target sample rate using
// linear interpolation. Good enough for speech fed into transcription.
func (b *Buffer) Resample(rate int) *Buffer {
	if b.SampleRate == rate {
		return b
	}
	mono := b.Mono()
	return &Buffer{
		Samples:    resampleLinear(mono.Samples, mono.SampleRate, rate),
		SampleRate: rate,
		Channels:   1,
	}
}
