// Package recognition implements the HTTP client for the speech recognition service.
// It wraps one recording as a WAV file, posts it as multipart form data to
// /api/v1/asr, and reduces every possible outcome to a single Result: text,
// a classified error, or a cancellation. Requests are never retried.
package recognition
