package audio_test

import (
	"encoding/binary"
	"testing"

	"github.com/kanade-bot/kanade/pkg/audio"
)

// samplesToBytes converts a slice of int16 samples to little-endian byte representation.
func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// bytesToSamples converts little-endian bytes back to int16 samples.
func bytesToSamples(buf []byte) []int16 {
	samples := make([]int16, len(buf)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return samples
}

func TestMonoToStereo(t *testing.T) {
	mono := samplesToBytes([]int16{100, 200, 300})
	stereo := audio.MonoToStereo(mono)
	got := bytesToSamples(stereo)
	want := []int16{100, 100, 200, 200, 300, 300}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMonoToStereo_OddLengthInput(t *testing.T) {
	// A trailing odd byte cannot form a sample and is dropped.
	in := []byte{0x01, 0x02, 0x03}
	out := audio.MonoToStereo(in)
	if len(out) != 4 {
		t.Fatalf("length = %d, want 4", len(out))
	}
}

func TestResampleMono16_SameRate(t *testing.T) {
	in := samplesToBytes([]int16{1, 2, 3})
	out := audio.ResampleMono16(in, 48000, 48000)
	if &in[0] != &out[0] {
		t.Error("same-rate resample should return the input unchanged")
	}
}

func TestResampleMono16_Upsample(t *testing.T) {
	in := samplesToBytes([]int16{0, 1000})
	out := audio.ResampleMono16(in, 24000, 48000)
	got := bytesToSamples(out)
	if len(got) != 4 {
		t.Fatalf("length = %d, want 4", len(got))
	}
	// Linear interpolation: 0, 500, 1000, 1000 (last sample repeats).
	want := []int16{0, 500, 1000, 1000}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResampleMono16_Downsample(t *testing.T) {
	in := samplesToBytes(make([]int16, 480))
	out := audio.ResampleMono16(in, 48000, 24000)
	if len(out) != 480 {
		t.Errorf("length = %d, want 480", len(out))
	}
}

func TestResampleMono16_ZeroRate(t *testing.T) {
	in := samplesToBytes([]int16{1, 2})
	if out := audio.ResampleMono16(in, 0, 48000); len(out) != len(in) {
		t.Error("zero src rate should pass input through")
	}
	if out := audio.ResampleMono16(in, 48000, 0); len(out) != len(in) {
		t.Error("zero dst rate should pass input through")
	}
}

func TestResampleStereo16(t *testing.T) {
	// One stereo frame per 4 bytes; doubling the rate doubles the frames.
	in := samplesToBytes([]int16{100, -100, 200, -200})
	out := audio.ResampleStereo16(in, 24000, 48000)
	if len(out) != 16 {
		t.Fatalf("length = %d, want 16", len(out))
	}
	got := bytesToSamples(out)
	if got[0] != 100 || got[1] != -100 {
		t.Errorf("first frame = %d,%d, want 100,-100", got[0], got[1])
	}
}

func TestResampleStereo16_ZeroRate(t *testing.T) {
	in := samplesToBytes([]int16{1, 2, 3, 4})
	if out := audio.ResampleStereo16(in, 0, 48000); len(out) != len(in) {
		t.Error("zero src rate should pass input through")
	}
}
