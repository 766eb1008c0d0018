// Package server provides the HTTP status API for monitoring the
// recorder: session state, capture statistics, configuration, and
// Prometheus metrics.
package server
