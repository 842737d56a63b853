package qbparse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Parser classifies pasted question blocks. A Parser is immutable once
// created and safe for concurrent use.
type Parser struct {
	noise []*regexp.Regexp
}

// NewParser returns a parser that drops the default noise lines plus any
// lines matching extraNoise.
func NewParser(extraNoise ...string) (*Parser, error) {
	noise := make([]*regexp.Regexp, len(defaultNoise), len(defaultNoise)+len(extraNoise))
	copy(noise, defaultNoise)

	for _, pattern := range extraNoise {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid noise pattern %q: %w", pattern, err)
		}
		noise = append(noise, re)
	}

	return &Parser{noise: noise}, nil
}

// Parse classifies text using the default noise patterns.
func Parse(text string) ParsedQuestion {
	return defaultParser.Parse(text)
}

// IsNoise reports whether line is page chrome under the default patterns.
func IsNoise(line string) bool {
	return defaultParser.IsNoise(line)
}

// IsNoise reports whether line matches one of the parser's noise patterns.
func (p *Parser) IsNoise(line string) bool {
	line = strings.TrimSpace(line)
	for _, re := range p.noise {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Parse splits text into question, choices, correct answer and
// explanation. It never fails; missing parts are left empty.
func (p *Parser) Parse(text string) ParsedQuestion {
	before, after, found := splitAtMarker(splitLines(text))

	result := ParsedQuestion{Choices: []string{}}
	if found {
		result.Explanation = p.explanation(after)
	}

	var question []string
	for _, raw := range before {
		line := strings.TrimSpace(raw)
		if line == "" || p.IsNoise(line) {
			continue
		}

		// Correct-answer lines are tested first; a later one overwrites
		// an earlier one.
		if m := correctRe.FindStringSubmatch(line); m != nil {
			result.Correct = normalizeToken(m[1])
			continue
		}

		if choiceRe.MatchString(line) {
			result.Choices = append(result.Choices, choiceLeadRe.ReplaceAllString(line, ""))
			continue
		}

		question = append(question, line)
	}

	result.Question = strings.TrimSpace(strings.Join(question, "\n"))
	return result
}

func (p *Parser) explanation(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || p.IsNoise(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// splitAtMarker returns the lines before and after the first explanation
// marker line.
func splitAtMarker(lines []string) (before, after []string, found bool) {
	for i, line := range lines {
		if strings.TrimSpace(line) == ExplanationMarker {
			return lines[:i], lines[i+1:], true
		}
	}
	return lines, nil, false
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// normalizeToken narrows full-width Latin letters and uppercases the
// result. Digits and circled numerals are kept as they are.
func normalizeToken(tok string) string {
	var b strings.Builder
	for _, r := range tok {
		if unicode.IsLetter(r) {
			if narrow := width.LookupRune(r).Narrow(); narrow != 0 {
				r = narrow
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
