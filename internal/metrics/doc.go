// Package metrics defines the Prometheus collectors for sessions, capture,
// recognition requests, and the status API.
package metrics
