// Package processor contains the core flow for turning pasted QB
// questions into Anki cards. It reads the paste, classifies it, optionally
// drafts a missing explanation, renders the card and then previews it,
// sends it through AnkiConnect or collects it for an offline export. This
// package serves as the main coordinator between all other components.
package processor
