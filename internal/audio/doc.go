// Package audio handles microphone capture, PCM buffering, and WAV encoding.
// A Capture acquires the default input device for one recording, accumulates
// 16-bit little-endian PCM while running, and hands the bytes back on Stop.
// EncodeWAV wraps those bytes in the canonical 44-byte RIFF header expected by
// the recognition service.
package audio
