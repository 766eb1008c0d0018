package playback

// Clock is the reconciled playback position exposed to displays.
type Clock struct {
	DurationSeconds float64 `json:"duration_seconds"`
	PositionSeconds float64 `json:"position_seconds"`
	Playing         bool    `json:"playing"`
}

// Player is the host playback element. Seek is synchronous: it returns
// only once the new position has been applied, so a probe can read the
// finalized duration immediately after seeking.
type Player interface {
	Load(mimeType string, data []byte) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	Position() float64
	// Duration may report 0, NaN or +Inf for sources whose length the
	// host has not finalized yet.
	Duration() float64
	Playing() bool
	Close() error
}
