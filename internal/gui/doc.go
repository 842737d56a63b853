// Package gui provides the desktop window for turning pasted QB questions
// into Anki notes: paste and parse on the first tab, preview, correct and
// send on the second.
package gui
