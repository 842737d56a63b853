package internal

// Version is the qb2anki release version.
const Version = "0.3.0"
