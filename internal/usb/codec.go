package usb

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Each pixel travels as two 16-bit registers: low word, then the high byte.
const (
	sampleLowMask  = 0xFFFF
	sampleHighMask = 0xFF

	// SampleMax is the largest value the two-register format can carry.
	SampleMax = 1<<24 - 1
)

var ErrOddWordCount = errors.New("odd register word count")

// EncodeSamples interleaves samples as [lsb0, msb0, lsb1, msb1, ...].
// Bits above 24 are dropped.
func EncodeSamples(samples []uint32) []uint16 {
	words := make([]uint16, 2*len(samples))
	for i, x := range samples {
		words[2*i] = uint16(x & sampleLowMask)
		words[2*i+1] = uint16((x >> 16) & sampleHighMask)
	}
	return words
}

// DecodeSamples reverses EncodeSamples.
func DecodeSamples(words []uint16) ([]uint32, error) {
	if len(words)%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrOddWordCount, len(words))
	}

	samples := make([]uint32, len(words)/2)
	for i := range samples {
		lsb := uint32(words[2*i])
		msb := uint32(words[2*i+1] & sampleHighMask)
		samples[i] = msb<<16 | lsb
	}
	return samples, nil
}

// WordsToBytes serialisiert Register little endian für rohe Byte-Transporte
func WordsToBytes(words []uint16) []byte {
	buf := make([]byte, 2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[2*i:], w)
	}
	return buf
}
