// Package playback tracks playback position against a possibly
// unreliable reported duration, polling the player instead of trusting
// its position-change events.
package playback
