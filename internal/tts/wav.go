package tts

import "encoding/binary"

// DefaultSampleRate is the PCM sample rate the realtime API streams at.
const DefaultSampleRate = 24000

// PCMToWAV wraps raw 16-bit mono PCM samples in a RIFF/WAVE header so
// browsers can play them directly.
func PCMToWAV(pcm []byte, sampleRate int) []byte {
	const (
		numChannels = 1
		sampleWidth = 2
	)

	buf := make([]byte, 0, 44+len(pcm))
	u32 := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}
	u16 := func(v uint16) []byte {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		return b
	}

	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, u32(uint32(36+len(pcm)))...)
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = append(buf, u32(16)...)                                         // fmt chunk size
	buf = append(buf, u16(1)...)                                          // PCM format
	buf = append(buf, u16(numChannels)...)
	buf = append(buf, u32(uint32(sampleRate))...)
	buf = append(buf, u32(uint32(sampleRate*numChannels*sampleWidth))...) // byte rate
	buf = append(buf, u16(numChannels*sampleWidth)...)                    // block align
	buf = append(buf, u16(sampleWidth*8)...)                              // bits per sample
	buf = append(buf, []byte("data")...)
	buf = append(buf, u32(uint32(len(pcm)))...)
	buf = append(buf, pcm...)
	return buf
}
