package batch

import (
	"fmt"
	"os"
	"strings"
)

// Separator is the line that divides pasted questions in a batch file
const Separator = "---"

// Entry is one pasted question block from a batch file
type Entry struct {
	Text string // Raw pasted text, handed to the classifier as is
	Line int    // 1-based line number where the block starts
	// Subject overrides the command-line subject when the block starts
	// with a "subject = <name>" line
	Subject string
}

// ReadBatchFile reads question blocks from a file.
// Format:
//
//	subject = A 消化管     (optional, first line of a block)
//	<pasted question>
//	---
//	<next pasted question>
func ReadBatchFile(filename string) ([]Entry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return SplitBlocks(string(content)), nil
}

// SplitBlocks splits text at separator lines. Blocks containing only
// whitespace are skipped.
func SplitBlocks(text string) []Entry {
	var entries []Entry
	var current []string
	start := 1

	flush := func() {
		if entry, ok := newEntry(current, start); ok {
			entries = append(entries, entry)
		}
		current = nil
	}

	for i, line := range splitLines(text) {
		if isSeparator(line) {
			flush()
			start = i + 2
			continue
		}
		current = append(current, line)
	}
	flush()

	return entries
}

func newEntry(lines []string, start int) (Entry, bool) {
	// Skip leading blank lines so Line points at content
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
		start++
	}
	if len(lines) == 0 {
		return Entry{}, false
	}

	entry := Entry{Line: start}
	if subject, ok := parseSubjectLine(lines[0]); ok {
		entry.Subject = subject
		lines = lines[1:]
	}

	entry.Text = strings.TrimSpace(strings.Join(lines, "\n"))
	if entry.Text == "" {
		return Entry{}, false
	}
	return entry, true
}

// parseSubjectLine recognizes "subject = X" and "科目 = X"
func parseSubjectLine(line string) (string, bool) {
	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", false
	}
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "subject", "科目":
		return strings.TrimSpace(value), true
	}
	return "", false
}

func isSeparator(line string) bool {
	return strings.TrimSpace(line) == Separator
}

// splitLines splits a string by newlines, accepting \r\n and \r
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
