// Package card renders parsed QB questions into the HTML front and back
// of an Anki note, and builds the note's deck and tag metadata.
package card
