package audio

import "testing"

func TestQuantizeSample(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive full scale", 1.0, 32767},
		{"negative full scale", -1.0, -32768},
		{"positive half", 0.5, 16383},
		{"negative half", -0.5, -16384},
		{"clamped above", 2.5, 32767},
		{"clamped below", -3.0, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuantizeSample(tt.input); got != tt.expected {
				t.Errorf("QuantizeSample(%f) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPCM16BytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345, -12345}

	data := BytesFromPCM16(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("Expected %d bytes, got %d", len(samples)*2, len(data))
	}

	decoded := PCM16FromBytes(data)
	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}

	for i, s := range samples {
		if decoded[i] != s {
			t.Errorf("Sample %d: expected %d, got %d", i, s, decoded[i])
		}
	}
}

func TestPCM16FromBytesOddLength(t *testing.T) {
	// A trailing odd byte is ignored
	decoded := PCM16FromBytes([]byte{0x01, 0x02, 0x03})
	if len(decoded) != 1 {
		t.Fatalf("Expected 1 sample, got %d", len(decoded))
	}
	if decoded[0] != 0x0201 {
		t.Errorf("Expected sample 0x0201, got 0x%04x", uint16(decoded[0]))
	}
}
