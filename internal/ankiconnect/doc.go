// Package ankiconnect is a client for the AnkiConnect add-on's local
// JSON API (version 6). Requests go through a circuit breaker so that a
// stopped Anki fails fast instead of timing out on every call.
package ankiconnect
