package gui

import (
	"errors"
	"fmt"
	stdimage "image"
	"strings"
	"testing"

	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/qb2anki/internal/ankiconnect"
	"codeberg.org/snonux/qb2anki/internal/card"
	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

func sampleParsed() qbparse.ParsedQuestion {
	return qbparse.ParsedQuestion{
		Question:    "急性心筋梗塞で正しいのはどれか。",
		Choices:     []string{"a 選択肢1", "b 選択肢2"},
		Correct:     "B",
		Explanation: "解説本文",
	}
}

func TestBuildNoteRequest(t *testing.T) {
	req, err := buildNoteRequest(cardInput{
		Parsed:  sampleParsed(),
		Deck:    "CBT",
		Subject: "C 循環器",
		Tags:    "要復習, ,頻出",
	})
	if err != nil {
		t.Fatalf("buildNoteRequest() error = %v", err)
	}

	if req.Deck != "CBT" {
		t.Errorf("Deck = %q, want CBT", req.Deck)
	}
	wantTags := []string{"科目::C 循環器", "QB", "要復習", "頻出"}
	if strings.Join(req.Tags, "|") != strings.Join(wantTags, "|") {
		t.Errorf("Tags = %v, want %v", req.Tags, wantTags)
	}
	if !strings.Contains(req.Front, "C 循環器") || !strings.Contains(req.Front, "a 選択肢1") {
		t.Errorf("Front missing subject or choices: %s", req.Front)
	}
	if !strings.Contains(req.Back, "正解：B") {
		t.Errorf("Back missing correct answer: %s", req.Back)
	}
}

func TestBuildNoteRequestWithImage(t *testing.T) {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 4, 4))

	req, err := buildNoteRequest(cardInput{
		Parsed:    sampleParsed(),
		Deck:      card.DefaultDeck,
		BackImage: img,
	})
	if err != nil {
		t.Fatalf("buildNoteRequest() error = %v", err)
	}
	if strings.Contains(req.Front, "data:image/png") {
		t.Error("Front should not contain an image")
	}
	if !strings.Contains(req.Back, "data:image/png;base64,") {
		t.Error("Back should contain the embedded image")
	}
}

func TestBuildNoteRequestRequiresDeck(t *testing.T) {
	if _, err := buildNoteRequest(cardInput{Parsed: sampleParsed(), Deck: "  "}); err == nil {
		t.Error("expected error for empty deck")
	}
}

func TestBuildNoteRequestRequiresFront(t *testing.T) {
	parsed := qbparse.ParsedQuestion{Choices: []string{}, Correct: "A", Explanation: "解説のみ"}
	if _, err := buildNoteRequest(cardInput{Parsed: parsed, Deck: card.DefaultDeck}); err == nil {
		t.Error("expected error for a card with an empty front")
	}
}

func TestSubjectOptions(t *testing.T) {
	options := subjectOptions()
	if len(options) != len(card.Subjects) {
		t.Fatalf("got %d options, want %d", len(options), len(card.Subjects))
	}
	if options[0] != noSubject {
		t.Errorf("first option = %q, want %q", options[0], noSubject)
	}

	tests := []struct {
		option string
		want   string
	}{
		{noSubject, ""},
		{"A 消化管", "A 消化管"},
		{"Z 必修問題", "Z 必修問題"},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			if got := subjectFromOption(tt.option); got != tt.want {
				t.Errorf("subjectFromOption(%q) = %q, want %q", tt.option, got, tt.want)
			}
		})
	}
}

func TestDeckOptions(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		want       []string
	}{
		{"empty", "", []string{"国試", "CBT"}},
		{"standard", "CBT", []string{"国試", "CBT"}},
		{"custom", "復習", []string{"国試", "CBT", "復習"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deckOptions(tt.configured)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("deckOptions(%q) = %v, want %v", tt.configured, got, tt.want)
			}
		})
	}

	// The package-level list must not grow
	deckOptions("other")
	if len(card.Decks) != 2 {
		t.Errorf("card.Decks modified: %v", card.Decks)
	}
}

func TestConnectionStatus(t *testing.T) {
	text, importance := connectionStatus(6, nil)
	if text != "✓ 接続OK (v6)" || importance != widget.SuccessImportance {
		t.Errorf("connectionStatus(6, nil) = %q, %v", text, importance)
	}

	text, importance = connectionStatus(0, errors.New("refused"))
	if text != "✗ 接続失敗" || importance != widget.DangerImportance {
		t.Errorf("connectionStatus(0, err) = %q, %v", text, importance)
	}
}

func TestSendError(t *testing.T) {
	apiErr := &ankiconnect.APIError{Action: "addNote", Message: "cannot create note because it is a duplicate"}
	msg := sendError(fmt.Errorf("failed to add note: %w", apiErr)).Error()
	if !strings.Contains(msg, "duplicate") {
		t.Errorf("missing API message: %s", msg)
	}
	if strings.Contains(msg, "2055492159") {
		t.Errorf("API errors should not carry the setup hints: %s", msg)
	}

	msg = sendError(ankiconnect.ErrUnavailable).Error()
	if !strings.Contains(msg, "2055492159") {
		t.Errorf("transport errors should carry the setup hints: %s", msg)
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"one", "one"},
		{"one\ntwo", "one"},
	}
	for _, tt := range tests {
		if got := firstLine(tt.in); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusMessages(t *testing.T) {
	if got := addedStatus(1001, "国試"); got != "ノート 1001 を 国試 に追加しました" {
		t.Errorf("addedStatus() = %q", got)
	}
	if got := errorStatus(errors.New("接続できません\n詳細")); got != "エラー: 接続できません" {
		t.Errorf("errorStatus() = %q", got)
	}
	if statusReady != "準備完了" {
		t.Errorf("statusReady = %q", statusReady)
	}
}
