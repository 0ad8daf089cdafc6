// Package keyboard turns a global press-and-hold hotkey into session commands.
package keyboard
