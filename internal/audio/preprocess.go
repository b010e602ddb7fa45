package audio

import "math"

// Preprocessor cleans up raw microphone input before transcription:
// a high-pass filter suppresses low-frequency handling and room noise,
// then the signal is peak-normalized to unit amplitude. Stateless and
// deterministic; silence passes through untouched.
type Preprocessor struct {
	CutoffHz float64
	Order    int
}

// NewPreprocessor returns a preprocessor with the tuning used for noisy
// voice-note input: 100 Hz cutoff, order-10 Butterworth response.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{CutoffHz: 100, Order: 10}
}

// Process returns a filtered, normalized copy of the buffer. All-zero
// input is returned as-is; the peak division never runs on silence.
// Output length equals input length and amplitudes stay within [-1, 1].
func (p *Preprocessor) Process(in *Buffer) (*Buffer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	mono := in.Mono()
	if peak(mono.Samples) == 0 {
		return mono, nil
	}

	out := make([]float32, len(mono.Samples))
	copy(out, mono.Samples)

	for _, sec := range p.sections(float64(mono.SampleRate)) {
		sec.filter(out)
	}

	if pk := peak(out); pk > 0 {
		inv := 1 / pk
		for i := range out {
			out[i] *= inv
		}
	}

	return &Buffer{Samples: out, SampleRate: mono.SampleRate, Channels: 1}, nil
}

func peak(x []float32) float32 {
	var pk float32
	for _, v := range x {
		if v < 0 {
			v = -v
		}
		if v > pk {
			pk = v
		}
	}
	return pk
}

// biquad is one second-order filter section in direct form II transposed.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func (q *biquad) filter(x []float32) {
	var z1, z2 float64
	for i, v := range x {
		in := float64(v)
		out := q.b0*in + z1
		z1 = q.b1*in - q.a1*out + z2
		z2 = q.b2*in - q.a2*out
		x[i] = float32(out)
	}
}

// sections builds the cascade of second-order high-pass stages that
// realizes the Butterworth response. Pole-pair Q values come from the
// standard Butterworth angles; each stage is a cookbook high-pass biquad.
func (p *Preprocessor) sections(sampleRate float64) []biquad {
	order := p.Order
	if order < 2 {
		order = 2
	}
	order -= order % 2 // pairs of conjugate poles only

	cutoff := p.CutoffHz
	nyquist := sampleRate / 2
	if cutoff >= nyquist {
		cutoff = nyquist * 0.9
	}

	w0 := 2 * math.Pi * cutoff / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)

	n := order / 2
	secs := make([]biquad, n)
	for k := 0; k < n; k++ {
		angle := math.Pi * float64(2*k+1) / float64(2*order)
		q := 1 / (2 * math.Cos(angle))

		alpha := sinW0 / (2 * q)
		a0 := 1 + alpha

		secs[k] = biquad{
			b0: (1 + cosW0) / 2 / a0,
			b1: -(1 + cosW0) / a0,
			b2: (1 + cosW0) / 2 / a0,
			a1: -2 * cosW0 / a0,
			a2: (1 - alpha) / a0,
		}
	}
	return secs
}
