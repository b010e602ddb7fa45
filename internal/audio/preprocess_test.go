package audio

import (
	"math"
	"testing"
)

func sine(freq float64, amp float32, rate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amp * float32(math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestProcess_SilencePassthrough(t *testing.T) {
	p := NewPreprocessor()

	in := &Buffer{Samples: make([]float32, 16000), SampleRate: 16000, Channels: 1}
	out, err := p.Process(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("expected same length, got %d vs %d", len(out.Samples), len(in.Samples))
	}
	for i, v := range out.Samples {
		if v != 0 {
			t.Fatalf("expected silence to pass through unchanged, sample %d = %f", i, v)
		}
	}
}

func TestProcess_NormalizesToUnitPeak(t *testing.T) {
	p := NewPreprocessor()

	// Quiet 440 Hz tone, well above the cutoff.
	in := &Buffer{Samples: sine(440, 0.1, 16000, 16000), SampleRate: 16000, Channels: 1}
	out, err := p.Process(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pk := peak(out.Samples)
	if pk < 0.99 || pk > 1.0 {
		t.Errorf("expected peak ~1.0 after normalization, got %f", pk)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Errorf("expected same-length output, got %d vs %d", len(out.Samples), len(in.Samples))
	}
}

func TestProcess_AttenuatesLowFrequencies(t *testing.T) {
	p := NewPreprocessor()
	rate := 16000
	n := rate // one second

	// 30 Hz rumble mixed with a 1 kHz voice-band tone at equal level.
	samples := make([]float32, n)
	low := sine(30, 0.5, rate, n)
	high := sine(1000, 0.5, rate, n)
	for i := range samples {
		samples[i] = low[i] + high[i]
	}

	out, err := p.Process(&Buffer{Samples: samples, SampleRate: rate, Channels: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Estimate remaining energy at both frequencies with a single-bin
	// correlation; skip the first quarter second of filter transient.
	energy := func(freq float64) float64 {
		var re, im float64
		for i := n / 4; i < n; i++ {
			v := float64(out.Samples[i])
			re += v * math.Cos(2*math.Pi*freq*float64(i)/float64(rate))
			im += v * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
		}
		return math.Hypot(re, im)
	}

	lowE, highE := energy(30), energy(1000)
	if lowE*10 > highE {
		t.Errorf("expected low band heavily attenuated: low=%f high=%f", lowE, highE)
	}
}

func TestProcess_RejectsInvalidInput(t *testing.T) {
	p := NewPreprocessor()

	if _, err := p.Process(&Buffer{}); err == nil {
		t.Error("expected error for empty buffer")
	}
	if _, err := p.Process(&Buffer{Samples: []float32{0.1}, SampleRate: 0}); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestProcess_DownmixesStereo(t *testing.T) {
	p := NewPreprocessor()

	mono := sine(500, 0.4, 16000, 8000)
	stereo := make([]float32, 0, len(mono)*2)
	for _, v := range mono {
		stereo = append(stereo, v, v)
	}

	out, err := p.Process(&Buffer{Samples: stereo, SampleRate: 16000, Channels: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Channels != 1 {
		t.Errorf("expected mono output, got %d channels", out.Channels)
	}
	if len(out.Samples) != len(mono) {
		t.Errorf("expected %d samples, got %d", len(mono), len(out.Samples))
	}
}
