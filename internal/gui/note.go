package gui

import (
	"errors"
	"fmt"
	stdimage "image"
	"strings"

	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/qb2anki/internal/ankiconnect"
	"codeberg.org/snonux/qb2anki/internal/card"
	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

// noSubject is how the empty subject is shown in the subject select
const noSubject = "（科目なし）"

// cardInput is everything the send button works from
type cardInput struct {
	Parsed     qbparse.ParsedQuestion
	Deck       string
	Subject    string
	Tags       string
	FrontImage stdimage.Image
	BackImage  stdimage.Image
}

// buildNoteRequest renders the card the way the CLI does
func buildNoteRequest(in cardInput) (ankiconnect.NoteRequest, error) {
	if strings.TrimSpace(in.Deck) == "" {
		return ankiconnect.NoteRequest{}, errors.New("デッキ名を選択してください")
	}
	if !in.Parsed.HasFront() {
		return ankiconnect.NoteRequest{}, errors.New("問題文も選択肢もありません。手動修正で問題文を入力してください")
	}

	front, err := card.BuildFront(in.Parsed, in.Subject, in.FrontImage)
	if err != nil {
		return ankiconnect.NoteRequest{}, err
	}
	back, err := card.BuildBack(in.Parsed, in.BackImage)
	if err != nil {
		return ankiconnect.NoteRequest{}, err
	}

	return ankiconnect.NoteRequest{
		Deck:  in.Deck,
		Front: front,
		Back:  back,
		Tags:  card.BuildTags(in.Subject, in.Tags),
	}, nil
}

// subjectOptions returns the entries of the subject select
func subjectOptions() []string {
	options := []string{noSubject}
	return append(options, card.Subjects[1:]...)
}

// subjectFromOption maps a select entry back to a subject
func subjectFromOption(option string) string {
	if option == noSubject {
		return ""
	}
	return option
}

// deckOptions returns the deck choices, including a configured deck that
// is not one of the standard ones
func deckOptions(configured string) []string {
	options := append([]string{}, card.Decks...)
	if configured == "" {
		return options
	}
	for _, deck := range options {
		if deck == configured {
			return options
		}
	}
	return append(options, configured)
}

// connectionStatus describes the result of a version check
func connectionStatus(version int, err error) (string, widget.Importance) {
	if err != nil {
		return "✗ 接続失敗", widget.DangerImportance
	}
	return fmt.Sprintf("✓ 接続OK (v%d)", version), widget.SuccessImportance
}

// statusReady is the status line of an idle window
const statusReady = "準備完了"

// addedStatus is the status line after a successful send
func addedStatus(id int64, deck string) string {
	return fmt.Sprintf("ノート %d を %s に追加しました", id, deck)
}

// errorStatus is the status line after a failure, first line only
func errorStatus(err error) string {
	return "エラー: " + firstLine(err.Error())
}

// ankiHelp is appended to AnkiConnect error dialogs
const ankiHelp = "・Ankiが起動しているか確認してください\n" +
	"・アドオン 2055492159 (AnkiConnect) がインストールされているか確認してください\n" +
	"・AnkiConnectのCORS設定を確認してください"

// sendError wraps a failed send with the troubleshooting hints
func sendError(err error) error {
	var apiErr *ankiconnect.APIError
	if errors.As(err, &apiErr) {
		// Anki answered, so the hints about it not running do not apply
		return fmt.Errorf("カードの追加に失敗しました。\n\n%s", apiErr.Message)
	}
	return fmt.Errorf("カードの追加に失敗しました。\n\n%v\n\n%s", err, ankiHelp)
}
