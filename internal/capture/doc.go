// Package capture orchestrates audio acquisition from the input device
// using one of two strategies: the host's native streaming recorder or a
// manual PCM sample callback.
package capture
