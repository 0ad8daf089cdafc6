// Package vad provides energy-based voice activity analysis of captured PCM.
// It slides a fixed window over a recording, marks windows whose smoothed RMS
// level crosses a threshold, and reports voiced segments with their offsets.
// The result is diagnostic only and never decides whether audio is submitted.
package vad
