// Package wav reads and writes the PCM WAV files the CLI clients stream.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const formatPCM = 1

var (
	ErrNotWAV = errors.New("not a RIFF/WAVE file")
	ErrNotPCM = errors.New("only PCM WAV files are supported")
)

// Format is the fmt chunk of a WAV file.
type Format struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// BytesPerSecond is the PCM byte rate.
func (f Format) BytesPerSecond() int {
	return int(f.SampleRate) * int(f.Channels) * int(f.BitsPerSample) / 8
}

// Reader yields the PCM samples of a WAV stream.
type Reader struct {
	Format Format
	data   io.Reader
	read   int64
}

// NewReader parses chunks up to the data chunk. Unknown chunks such as
// LIST are skipped.
func NewReader(r io.Reader) (*Reader, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		f      Format
		haveFm bool
	)
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk of %d bytes", ErrNotWAV, size)
			}
			if binary.LittleEndian.Uint16(body[0:2]) != formatPCM {
				return nil, ErrNotPCM
			}
			f = Format{
				Channels:      binary.LittleEndian.Uint16(body[2:4]),
				SampleRate:    binary.LittleEndian.Uint32(body[4:8]),
				BitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
			}
			haveFm = true
		case "data":
			if !haveFm {
				return nil, fmt.Errorf("%w: data before fmt chunk", ErrNotWAV)
			}
			return &Reader{Format: f, data: io.LimitReader(r, size)}, nil
		default:
			// Chunks are word aligned.
			if _, err := io.CopyN(io.Discard, r, size+size%2); err != nil {
				return nil, fmt.Errorf("failed to skip %q chunk: %w", id, err)
			}
		}
	}
}

// Chunks calls fn with consecutive pieces of at most size bytes and the
// audio offset of each piece's start. The slice is reused between calls.
func (r *Reader) Chunks(size int, fn func(chunk []byte, offsetMs int64) error) error {
	buf := make([]byte, size)
	rate := int64(r.Format.BytesPerSecond())
	for {
		n, err := io.ReadFull(r.data, buf)
		if n > 0 {
			var offset int64
			if rate > 0 {
				offset = r.read * 1000 / rate
			}
			r.read += int64(n)
			if ferr := fn(buf[:n], offset); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read audio: %w", err)
		}
	}
}

// BytesRead is the number of PCM bytes delivered so far.
func (r *Reader) BytesRead() int64 {
	return r.read
}

// Encode returns a minimal PCM WAV file holding pcm.
func Encode(f Format, pcm []byte) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian

	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(36+len(pcm)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(formatPCM))
	binary.Write(&b, le, f.Channels)
	binary.Write(&b, le, f.SampleRate)
	binary.Write(&b, le, uint32(f.BytesPerSecond()))
	binary.Write(&b, le, f.Channels*f.BitsPerSample/8)
	binary.Write(&b, le, f.BitsPerSample)

	b.WriteString("data")
	binary.Write(&b, le, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}
