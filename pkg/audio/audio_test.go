package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildTestWAV constructs a minimal but valid RIFF/WAVE byte slice containing
// the supplied raw PCM samples with a standard 44-byte header.
func buildTestWAV(pcm []byte, sampleRate int, channels int) []byte {
	fmtSize := uint32(16)
	dataSize := uint32(len(pcm))
	fileSize := 4 + (8 + fmtSize) + (8 + dataSize)

	buf := make([]byte, 0, 12+8+fmtSize+8+dataSize)
	le := binary.LittleEndian

	putU32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	putU16 := func(v uint16) {
		var b [2]byte
		le.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}

	buf = append(buf, []byte("RIFF")...)
	putU32(fileSize)
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	putU32(fmtSize)
	putU16(1) // PCM
	putU16(uint16(channels))
	putU32(uint32(sampleRate))
	putU32(uint32(sampleRate * channels * 2))
	putU16(uint16(channels * 2))
	putU16(16)

	buf = append(buf, []byte("data")...)
	putU32(dataSize)
	buf = append(buf, pcm...)

	return buf
}

func TestDecodeWAV(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00}
	wav := buildTestWAV(pcm, 24000, 1)

	got, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV() error: %v", err)
	}
	if !bytes.Equal(got.Data, pcm) {
		t.Errorf("Data = %v, want %v", got.Data, pcm)
	}
	if got.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", got.SampleRate)
	}
	if got.Channels != 1 {
		t.Errorf("Channels = %d, want 1", got.Channels)
	}
	if got.Samples() != 4 {
		t.Errorf("Samples() = %d, want 4", got.Samples())
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		wav  []byte
	}{
		{"empty", nil},
		{"not riff", []byte("OggS this is something else entirely")},
		{"truncated header", []byte("RIFF")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := DecodeWAV(tt.wav); err == nil {
				t.Error("DecodeWAV() expected error, got nil")
			}
		})
	}
}

func TestDecodeWAV_SkipsUnknownChunks(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x10, 0x00}
	wav := buildTestWAV(pcm, 48000, 2)

	// Splice a LIST chunk between fmt and data.
	list := append([]byte("LIST"), 0x04, 0x00, 0x00, 0x00, 'I', 'N', 'F', 'O')
	spliced := append([]byte{}, wav[:36]...)
	spliced = append(spliced, list...)
	spliced = append(spliced, wav[36:]...)

	got, err := DecodeWAV(spliced)
	if err != nil {
		t.Fatalf("DecodeWAV() error: %v", err)
	}
	if !bytes.Equal(got.Data, pcm) {
		t.Errorf("Data = %v, want %v", got.Data, pcm)
	}
}

func TestMonoToStereo(t *testing.T) {
	t.Parallel()

	mono := []byte{0x01, 0x02, 0x03, 0x04}
	want := []byte{0x01, 0x02, 0x01, 0x02, 0x03, 0x04, 0x03, 0x04}
	if got := MonoToStereo(mono); !bytes.Equal(got, want) {
		t.Errorf("MonoToStereo() = %v, want %v", got, want)
	}
}

func TestResampleMono16_SameRate(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x01, 0x00, 0x02, 0x00}
	if got := ResampleMono16(pcm, 48000, 48000); !bytes.Equal(got, pcm) {
		t.Errorf("ResampleMono16() same-rate = %v, want input unchanged", got)
	}
}

func TestResampleMono16_Upsample(t *testing.T) {
	t.Parallel()

	// 4 samples at 24 kHz should produce 8 samples at 48 kHz.
	pcm := make([]byte, 8)
	got := ResampleMono16(pcm, 24000, 48000)
	if len(got) != 16 {
		t.Errorf("ResampleMono16() produced %d bytes, want 16", len(got))
	}
}

func TestToDiscordFormat_MonoUpsamples(t *testing.T) {
	t.Parallel()

	// 24 kHz mono → 48 kHz stereo quadruples the byte count.
	p := PCM{Data: make([]byte, 480), SampleRate: 24000, Channels: 1}
	got := p.ToDiscordFormat()
	if len(got) != 480*4 {
		t.Errorf("ToDiscordFormat() produced %d bytes, want %d", len(got), 480*4)
	}
}

func TestToDiscordFormat_NativePassthrough(t *testing.T) {
	t.Parallel()

	data := []byte{0x01, 0x02, 0x03, 0x04}
	p := PCM{Data: data, SampleRate: 48000, Channels: 2}
	if got := p.ToDiscordFormat(); !bytes.Equal(got, data) {
		t.Errorf("ToDiscordFormat() = %v, want input unchanged", got)
	}
}
