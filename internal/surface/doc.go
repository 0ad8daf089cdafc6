// Package surface contains the desktop surfaces that receive recognized text.
//
// Each surface implements focus.Surface: Clipboard copies text to the
// system clipboard, Typer types it into the focused window, Log writes it
// to a stream, and Notifier wraps any of them with desktop notifications.
package surface
