// Package server implements the local HTTP API for monitoring and controlling
// the voice capture client: health, session status, statistics, sanitized
// configuration, session cancellation and Prometheus metrics.
package server
