// Package audio provides the PCM types and format conversions used between
// the speech engine and the Discord voice transport.
//
// The VOICEVOX engine returns WAV files (typically 24 kHz mono int16);
// Discord voice expects 48 kHz stereo int16. [DecodeWAV] parses the RIFF
// container and [PCM.ToDiscordFormat] performs the resample and channel
// conversion in one step.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// DiscordSampleRate and DiscordChannels describe the PCM format Discord
// voice connections consume (48 kHz stereo int16).
const (
	DiscordSampleRate = 48000
	DiscordChannels   = 2
)

// ErrNotWAV is returned by [DecodeWAV] when the input does not start with a
// RIFF/WAVE header.
var ErrNotWAV = errors.New("audio: not a RIFF/WAVE file")

// PCM holds raw little-endian int16 samples together with their format.
type PCM struct {
	// Data is interleaved little-endian int16 sample data.
	Data []byte

	// SampleRate in Hz.
	SampleRate int

	// Channels: 1 for mono, 2 for stereo.
	Channels int
}

// Samples reports the number of 16-bit samples per channel in the PCM data.
func (p PCM) Samples() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Data) / 2 / p.Channels
}

// ToDiscordFormat converts the PCM to 48 kHz stereo int16 bytes ready for
// the voice transport. Mono input is resampled first, then duplicated into
// stereo pairs. Stereo input at a foreign rate is resampled per channel.
func (p PCM) ToDiscordFormat() []byte {
	data := p.Data
	switch p.Channels {
	case 1:
		data = ResampleMono16(data, p.SampleRate, DiscordSampleRate)
		data = MonoToStereo(data)
	case 2:
		data = ResampleStereo16(data, p.SampleRate, DiscordSampleRate)
	}
	return data
}

// DecodeWAV parses a RIFF/WAVE byte slice and returns the contained PCM.
// Only uncompressed 16-bit PCM (format tag 1) is supported, which is what
// the VOICEVOX /synthesis endpoint produces. Chunks other than "fmt " and
// "data" are skipped.
func DecodeWAV(wav []byte) (PCM, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return PCM{}, ErrNotWAV
	}

	var (
		le         = binary.LittleEndian
		sampleRate int
		channels   int
		bits       int
		data       []byte
		haveFmt    bool
	)

	off := 12
	for off+8 <= len(wav) {
		id := string(wav[off : off+4])
		size := int(le.Uint32(wav[off+4 : off+8]))
		body := off + 8
		if body+size > len(wav) {
			return PCM{}, fmt.Errorf("audio: truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return PCM{}, fmt.Errorf("audio: fmt chunk too small (%d bytes)", size)
			}
			format := int(le.Uint16(wav[body : body+2]))
			if format != 1 {
				return PCM{}, fmt.Errorf("audio: unsupported WAV format tag %d (want PCM)", format)
			}
			channels = int(le.Uint16(wav[body+2 : body+4]))
			sampleRate = int(le.Uint32(wav[body+4 : body+8]))
			bits = int(le.Uint16(wav[body+14 : body+16]))
			haveFmt = true
		case "data":
			data = wav[body : body+size]
		}

		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt {
		return PCM{}, errors.New("audio: missing fmt chunk")
	}
	if data == nil {
		return PCM{}, errors.New("audio: missing data chunk")
	}
	if bits != 16 {
		return PCM{}, fmt.Errorf("audio: unsupported bit depth %d (want 16)", bits)
	}
	if channels != 1 && channels != 2 {
		return PCM{}, fmt.Errorf("audio: unsupported channel count %d", channels)
	}

	return PCM{Data: data, SampleRate: sampleRate, Channels: channels}, nil
}
