package audio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-audio/wav"
	"github.com/jfreymuth/oggvorbis"
)

// Decode sniffs the container format and decodes the stream into a
// Buffer. WAV and Ogg Vorbis are supported; that covers desktop uploads
// and most messenger voice notes re-encoded by the platform.
func Decode(r io.Reader) (*Buffer, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("sniff audio container: %w", err)
	}

	switch string(magic) {
	case "RIFF":
		return decodeWAV(br)
	case "OggS":
		return decodeOggVorbis(br)
	default:
		return nil, fmt.Errorf("unsupported audio container %q (supported: wav, ogg-vorbis)", string(magic))
	}
}

// DecodeBytes is a convenience wrapper around Decode.
func DecodeBytes(data []byte) (*Buffer, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeNamed decodes using a filename hint before falling back to
// container sniffing.
func DecodeNamed(name string, r io.Reader) (*Buffer, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".wav"):
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return decodeWAV(bytes.NewReader(data))
	case strings.HasSuffix(strings.ToLower(name), ".ogg"),
		strings.HasSuffix(strings.ToLower(name), ".oga"):
		return decodeOggVorbis(r)
	default:
		return Decode(r)
	}
}

func decodeWAV(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav stream")
	}

	pb, err := dec.FullPCMBuffer()
	if err != nil || pb == nil || pb.Data == nil {
		if err == nil {
			err = errors.New("empty wav stream")
		}
		return nil, err
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))

	samples := make([]float32, len(pb.Data))
	for i, v := range pb.Data {
		samples[i] = float32(v) / scale
	}

	ch, sr := 1, 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			ch = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			sr = pb.Format.SampleRate
		}
	}

	return &Buffer{Samples: samples, SampleRate: sr, Channels: ch}, nil
}

func decodeOggVorbis(r io.Reader) (*Buffer, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode ogg-vorbis: %w", err)
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, errors.New("invalid ogg-vorbis stream")
	}

	return &Buffer{
		Samples:    pcm,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}, nil
}
