package audio

// PCM16FromFloat converts float samples to 16-bit signed PCM. Each sample
// is clamped to [-1.0, 1.0] and quantized with an asymmetric scale
// (s*32768 for negative samples, s*32767 otherwise) so both extremes stay
// within the signed 16-bit range. Encoders depend on this exact rule for
// bit-exact output, so it must not be replaced with a symmetric scale or
// rounding quantizer.
func PCM16FromFloat(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = QuantizeSample(s)
	}
	return out
}

// QuantizeSample clamps and quantizes a single float sample.
func QuantizeSample(s float32) int16 {
	if s < -1.0 {
		s = -1.0
	} else if s > 1.0 {
		s = 1.0
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// FloatFromPCM16 converts 16-bit signed PCM back to float samples using
// the inverse of the asymmetric quantization scale.
func FloatFromPCM16(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		if s < 0 {
			out[i] = float32(s) / 32768
		} else {
			out[i] = float32(s) / 32767
		}
	}
	return out
}

// PCM16FromBytes decodes little-endian S16LE bytes into samples. The
// input length must be even; a trailing odd byte is ignored.
func PCM16FromBytes(data []byte) []int16 {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// BytesFromPCM16 encodes samples as little-endian S16LE bytes.
func BytesFromPCM16(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(uint16(s) >> 8)
	}
	return data
}
