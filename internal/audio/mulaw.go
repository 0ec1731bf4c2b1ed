// Package audio implements the G.711 mu-law codec used by telephony media
// streams. Decoding is the standard CCITT algorithm with no extra exponent
// offset, verified against reference PCMU tables.
package audio

const (
	// muLawBias is the standard G.711 companding bias (0x84).
	muLawBias = 132

	// muLawClip is the largest magnitude the encoder accepts before companding.
	muLawClip = 32635
)

// DecodeMuLaw expands 8-bit mu-law samples into signed 16-bit linear PCM,
// one output sample per input byte. It never fails: every byte value is a
// valid mu-law code, so malformed payloads simply decode to garbage audio.
func DecodeMuLaw(in []byte) []int16 {
	out := make([]int16, len(in))
	for i, b := range in {
		out[i] = muLawToLinear(b)
	}
	return out
}

// DecodeMuLawBytes decodes mu-law samples directly into little-endian PCM16
// bytes, the layout streaming recognizers expect for LINEAR16 audio.
func DecodeMuLawBytes(in []byte) []byte {
	out := make([]byte, 2*len(in))
	for i, b := range in {
		s := uint16(muLawToLinear(b))
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

// EncodeMuLaw compresses signed 16-bit linear PCM into 8-bit mu-law.
// Used by test clients and round-trip tests; the bridge itself only decodes.
func EncodeMuLaw(in []int16) []byte {
	out := make([]byte, len(in))
	for i, s := range in {
		out[i] = linearToMuLaw(s)
	}
	return out
}

func muLawToLinear(b byte) int16 {
	b = ^b
	sign := b & 0x80
	exponent := (b >> 4) & 0x07
	mantissa := b & 0x0F

	magnitude := ((int32(mantissa) << 3) + muLawBias) << exponent
	sample := magnitude - muLawBias
	if sign != 0 {
		sample = -sample
	}
	if sample > 32767 {
		sample = 32767
	} else if sample < -32768 {
		sample = -32768
	}
	return int16(sample)
}

func linearToMuLaw(s int16) byte {
	var sign byte
	v := int32(s)
	if v < 0 {
		v = -v
		sign = 0x80
	}
	if v > muLawClip {
		v = muLawClip
	}
	v += muLawBias

	exponent := byte(7)
	for mask := int32(0x4000); exponent > 0 && v&mask == 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte(v>>(exponent+3)) & 0x0F
	return ^(sign | exponent<<4 | mantissa)
}
