package card

import (
	"bytes"
	"fmt"
	"html/template"
	stdimage "image"
	"strings"

	"codeberg.org/snonux/qb2anki/internal/image"
	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

const (
	wrapperStyle = `font-family:'Noto Sans JP',sans-serif;line-height:1.8;color:#1a1a2e;max-width:640px;margin:0 auto;text-align:center`
	subjectStyle = `display:inline-block;background:#0d7377;color:#fff;font-size:11px;padding:2px 10px;border-radius:12px;margin-bottom:10px;font-weight:700`
	correctStyle = `background:#e8f8f5;border:2px solid #0d7377;border-radius:8px;padding:10px 16px;margin-bottom:14px;font-size:20px;font-weight:700;color:#0d7377;text-align:center`
	explainStyle = `background:#f8f9fa;border-radius:8px;padding:14px 16px;font-size:13px;line-height:1.85;text-align:left`
)

var frontTmpl = template.Must(template.New("front").Parse(
	`<div style="` + wrapperStyle + `;font-size:15px">` +
		`{{if .Subject}}<div style="` + subjectStyle + `">{{.Subject}}</div><br>{{end}}` +
		`<div style="font-weight:600;margin-bottom:10px">{{range $i, $l := .Question}}{{if $i}}<br>{{end}}{{$l}}{{end}}</div>` +
		`{{if .Choices}}<div style="border-left:3px solid #0d7377;padding-left:12px;margin-top:10px">` +
		`{{range .Choices}}<div style="padding:5px 0;{{if not .Last}}border-bottom:1px solid #dde8f0;{{end}}">{{.Text}}</div>{{end}}` +
		`</div>{{end}}` +
		`{{.Image}}</div>`))

var backTmpl = template.Must(template.New("back").Parse(
	`<div style="` + wrapperStyle + `;font-size:14px">` +
		`{{if .Correct}}<div style="` + correctStyle + `">正解：{{.Correct}}</div>{{end}}` +
		`{{if .Explanation}}<div style="` + explainStyle + `">{{range $i, $l := .Explanation}}{{if $i}}<br>{{end}}{{$l}}{{end}}</div>{{end}}` +
		`{{.Image}}</div>`))

type choiceView struct {
	Text string
	Last bool
}

type frontView struct {
	Subject  string
	Question []string
	Choices  []choiceView
	Image    template.HTML
}

type backView struct {
	Correct     string
	Explanation []string
	Image       template.HTML
}

// BuildFront renders the card front: subject badge, question stem, choice
// list and an optional embedded image.
func BuildFront(q qbparse.ParsedQuestion, subject string, img stdimage.Image) (string, error) {
	view := frontView{
		Subject:  subject,
		Question: splitNonEmpty(q.Question),
	}
	for i, c := range q.Choices {
		view.Choices = append(view.Choices, choiceView{Text: c, Last: i == len(q.Choices)-1})
	}

	tag, err := imageTag(img)
	if err != nil {
		return "", err
	}
	view.Image = tag

	var buf bytes.Buffer
	if err := frontTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render front: %w", err)
	}
	return buf.String(), nil
}

// BuildBack renders the card back: correct-answer banner, explanation and
// an optional embedded image.
func BuildBack(q qbparse.ParsedQuestion, img stdimage.Image) (string, error) {
	view := backView{
		Correct:     q.Correct,
		Explanation: splitNonEmpty(q.Explanation),
	}

	tag, err := imageTag(img)
	if err != nil {
		return "", err
	}
	view.Image = tag

	var buf bytes.Buffer
	if err := backTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render back: %w", err)
	}
	return buf.String(), nil
}

func imageTag(img stdimage.Image) (template.HTML, error) {
	if img == nil {
		return "", nil
	}
	tag, err := image.HTMLTag(img)
	if err != nil {
		return "", fmt.Errorf("failed to embed image: %w", err)
	}
	// The tag is produced locally from encoded pixel data.
	return template.HTML(tag), nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
