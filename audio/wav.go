package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mavoice/mavoice/internal/mvtypes"
)

// EncodeWAV renders a WavBuffer as a canonical RIFF/WAVE 16-bit PCM mono
// file, the wire format the STT client uploads.
func EncodeWAV(buf mvtypes.WavBuffer) []byte {
	dataSize := len(buf.Samples) * 2
	out := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	out.WriteString("RIFF")
	binary.Write(out, binary.LittleEndian, uint32(36+dataSize))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	binary.Write(out, binary.LittleEndian, uint32(16))
	binary.Write(out, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(out, binary.LittleEndian, uint16(1)) // mono
	binary.Write(out, binary.LittleEndian, uint32(buf.SampleRate))
	binary.Write(out, binary.LittleEndian, uint32(buf.SampleRate*2))
	binary.Write(out, binary.LittleEndian, uint16(2))  // block align
	binary.Write(out, binary.LittleEndian, uint16(16)) // bits per sample

	out.WriteString("data")
	binary.Write(out, binary.LittleEndian, uint32(dataSize))
	binary.Write(out, binary.LittleEndian, buf.Samples)

	return out.Bytes()
}

// DecodeWAV parses a canonical RIFF/WAVE 16-bit PCM mono file back into a
// WavBuffer. It is the inverse of EncodeWAV and is used by tests to assert
// the round-trip property.
func DecodeWAV(data []byte) (mvtypes.WavBuffer, error) {
	if len(data) < 44 {
		return mvtypes.WavBuffer{}, fmt.Errorf("audio: wav too short")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return mvtypes.WavBuffer{}, fmt.Errorf("audio: not a RIFF/WAVE file")
	}

	var sampleRate int
	var dataStart, dataSize int
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		switch chunkID {
		case "fmt ":
			if body+16 > len(data) {
				return mvtypes.WavBuffer{}, fmt.Errorf("audio: truncated fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return mvtypes.WavBuffer{}, fmt.Errorf("audio: unsupported wav format %d", audioFormat)
			}
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			dataStart = body
			dataSize = chunkSize
		}
		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if dataStart == 0 || dataSize == 0 {
		return mvtypes.WavBuffer{}, fmt.Errorf("audio: missing data chunk")
	}
	if dataStart+dataSize > len(data) {
		dataSize = len(data) - dataStart
	}

	n := dataSize / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[dataStart+2*i : dataStart+2*i+2]))
	}

	return mvtypes.WavBuffer{SampleRate: sampleRate, Samples: samples}, nil
}

// Int16LEBytes packs int16 PCM samples into little-endian bytes, the wire
// format both the uplink framer and the playback ring consume.
func Int16LEBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:2*i+2], uint16(s))
	}
	return out
}

// FloatToPCM16 converts [-1,1] float32 samples to clamped int16 PCM.
func FloatToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// PCM16ToFloat converts int16 PCM samples back to [-1,1] float32, the
// inverse of FloatToPCM16. Used to feed the analyser from playback audio,
// which arrives as s16le over the wire.
func PCM16ToFloat(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32767
	}
	return out
}
