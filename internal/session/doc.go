// Package session implements the press-and-hold voice capture coordinator.
//
// A Coordinator owns at most one session at a time and moves it through
// Idle, AwaitingConfirmation, Recording, and Recognizing. All transitions run
// on a single worker goroutine: public calls, the long-press timer, and
// recognition results are delivered to it as messages, so no session state is
// shared between goroutines. Observers receive Events through Subscribe; a
// result is applied only when its request id matches the outstanding one.
package session
