package qbparse

import (
	"strings"
)

// ParsedQuestion is the structured form of one pasted question block.
type ParsedQuestion struct {
	// Question is the stem, one source line per text line.
	Question string `json:"question" yaml:"question"`

	// Choices holds the answer options in source order, without the
	// leading "*" marker.
	Choices []string `json:"choices" yaml:"choices"`

	// Correct is the single enumerator of the correct choice, or empty.
	Correct string `json:"correct" yaml:"correct"`

	// Explanation is the text following the explanation marker.
	Explanation string `json:"explanation" yaml:"explanation"`
}

// IsEmpty reports whether nothing was recognised at all.
func (q ParsedQuestion) IsEmpty() bool {
	return q.Question == "" && len(q.Choices) == 0 && q.Correct == "" && q.Explanation == ""
}

// HasFront reports whether there is a question stem or a choice to put
// on the front of a card.
func (q ParsedQuestion) HasFront() bool {
	return q.Question != "" || len(q.Choices) > 0
}

// FrontText is the plain-text preview of the card front.
func (q ParsedQuestion) FrontText() string {
	text := q.Question
	if len(q.Choices) > 0 {
		text += "\n\n" + strings.Join(q.Choices, "\n")
	}
	return text
}

// BackText is the plain-text preview of the card back.
func (q ParsedQuestion) BackText() string {
	text := ""
	if q.Correct != "" {
		text += "正解：" + q.Correct + "\n\n"
	}
	text += q.Explanation
	return strings.TrimSpace(text)
}

// Edit returns a manually corrected copy. Choices are carried over from q
// and are not shared with it.
func (q ParsedQuestion) Edit(question, correct, explanation string) ParsedQuestion {
	choices := make([]string, len(q.Choices))
	copy(choices, q.Choices)

	return ParsedQuestion{
		Question:    strings.TrimSpace(question),
		Choices:     choices,
		Correct:     strings.TrimSpace(correct),
		Explanation: strings.TrimSpace(explanation),
	}
}
