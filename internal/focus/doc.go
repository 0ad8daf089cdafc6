// Package focus routes session events to the surface that started the session.
//
// Surfaces register with a Router and take turns holding focus. Only the
// focused surface may start a session, and recognized text is delivered
// only to the surface that started it while that surface still holds focus.
// A surface that loses focus while it owns the active session cancels it.
package focus
