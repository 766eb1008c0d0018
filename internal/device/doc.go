// Package device exposes the host audio collaborators consumed by the
// capture engine: a device-access provider, a raw PCM input stream, and
// an optional native streaming recorder.
package device
