// Package audio provides PCM sample buffering, float/int16 sample
// conversion, and WAV container encoding/decoding.
package audio
