package audio

import (
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV writes the buffer as 16-bit PCM WAV. The encoder needs a
// seekable writer to patch the RIFF header on close.
func EncodeWAV(b *Buffer, w io.WriteSeeker) error {
	if err := b.Validate(); err != nil {
		return err
	}

	ch := b.Channels
	if ch <= 0 {
		ch = 1
	}

	enc := wav.NewEncoder(w, b.SampleRate, 16, ch, 1)

	data := make([]int, len(b.Samples))
	for i, v := range b.Samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = int(v * 32767)
	}

	ib := &gaudio.IntBuffer{
		Data:           data,
		Format:         &gaudio.Format{NumChannels: ch, SampleRate: b.SampleRate},
		SourceBitDepth: 16,
	}

	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return enc.Close()
}

// WriteTempWAV encodes the buffer into a temporary .wav file and returns
// its path. The caller owns the file and must remove it on every exit
// path.
func WriteTempWAV(b *Buffer) (string, error) {
	f, err := os.CreateTemp("", "stimme-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}

	if err := EncodeWAV(b, f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
