// Package session owns the recording lifecycle: a single state machine
// driving device acquisition, capture strategy engagement, artifact
// finalization, and MP3 re-encoding.
package session
