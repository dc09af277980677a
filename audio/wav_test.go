package audio

import (
	"math/rand"
	"testing"

	"github.com/mavoice/mavoice/internal/mvtypes"
)

func TestWavRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(rng.Intn(65536) - 32768)
	}
	buf := mvtypes.WavBuffer{SampleRate: 16000, Samples: samples}

	encoded := EncodeWAV(buf)
	decoded, err := DecodeWAV(encoded)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if decoded.SampleRate != buf.SampleRate {
		t.Fatalf("sample rate mismatch: got %d want %d", decoded.SampleRate, buf.SampleRate)
	}
	if len(decoded.Samples) != len(buf.Samples) {
		t.Fatalf("sample count mismatch: got %d want %d", len(decoded.Samples), len(buf.Samples))
	}
	for i := range buf.Samples {
		if decoded.Samples[i] != buf.Samples[i] {
			t.Fatalf("sample %d mismatch: got %d want %d", i, decoded.Samples[i], buf.Samples[i])
		}
	}
}

func TestDecodeWAVRejectsTruncated(t *testing.T) {
	if _, err := DecodeWAV([]byte("short")); err == nil {
		t.Fatal("expected error for truncated input")
	}
}

func TestPCM16ToFloatRoundTrip(t *testing.T) {
	original := []int16{0, 16384, -16384, 32767, -32767}
	floats := PCM16ToFloat(original)
	back := FloatToPCM16(floats)
	for i := range original {
		diff := int(back[i]) - int(original[i])
		if diff < -1 || diff > 1 {
			t.Fatalf("sample %d: round trip drifted too far: got %d want ~%d", i, back[i], original[i])
		}
	}
}

func TestFloatToPCM16Clamps(t *testing.T) {
	out := FloatToPCM16([]float32{2.0, -2.0, 0})
	if out[0] != 32767 {
		t.Fatalf("expected clamp to max int16, got %d", out[0])
	}
	if out[1] != -32767 {
		t.Fatalf("expected clamp to min, got %d", out[1])
	}
	if out[2] != 0 {
		t.Fatalf("expected 0, got %d", out[2])
	}
}
