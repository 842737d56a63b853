package gui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/qb2anki/internal"
	"codeberg.org/snonux/qb2anki/internal/ankiconnect"
	"codeberg.org/snonux/qb2anki/internal/card"
	"codeberg.org/snonux/qb2anki/internal/explain"
	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// Left pane
	deckRadio       *widget.RadioGroup
	subjectSelect   *widget.Select
	tagsEntry       *CustomEntry
	connectionLabel *widget.Label
	checkButton     *ttwidget.Button

	// Tabs
	tabs       *container.AppTabs
	inputTab   *container.TabItem
	previewTab *container.TabItem

	// Input tab
	input       *CustomMultiLineEntry
	pasteButton *ttwidget.Button
	parseButton *ttwidget.Button

	// Preview tab
	frontPreview    *widget.Label
	backPreview     *widget.Label
	frontImage      *ImagePanel
	backImage       *ImagePanel
	questionEdit    *CustomMultiLineEntry
	correctEdit     *CustomEntry
	explanationEdit *CustomMultiLineEntry
	explainButton   *ttwidget.Button
	backButton      *ttwidget.Button
	sendButton      *ttwidget.Button
	resultLabel     *widget.Label

	statusLabel *widget.Label
	logViewer   *LogViewer

	// State management
	parsed *qbparse.ParsedQuestion

	// Configuration
	config *Config
	client *ankiconnect.Client
	parser *qbparse.Parser

	// Background requests
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// Config holds GUI application configuration
type Config struct {
	AnkiOptions *ankiconnect.Options
	Parser      *qbparse.Parser
	Explainer   explain.Explainer // nil hides the explain button
	Deck        string
	Subject     string
	Tags        string
}

// DefaultConfig returns default GUI configuration
func DefaultConfig() *Config {
	return &Config{
		AnkiOptions: ankiconnect.DefaultOptions(),
		Deck:        card.DefaultDeck,
	}
}

// New creates a new GUI application
func New(config *Config) *Application {
	if config == nil {
		config = DefaultConfig()
	} else {
		// Fill in missing fields with defaults
		defaults := DefaultConfig()
		if config.AnkiOptions == nil {
			config.AnkiOptions = defaults.AnkiOptions
		}
		if config.Deck == "" {
			config.Deck = defaults.Deck
		}
	}

	parser := config.Parser
	if parser == nil {
		// The default rule set always compiles
		parser, _ = qbparse.NewParser()
	}

	ctx, cancel := context.WithCancel(context.Background())

	myApp := app.NewWithID("org.codeberg.snonux.qb2anki")
	myApp.SetIcon(GetAppIcon())

	a := &Application{
		app:    myApp,
		config: config,
		client: ankiconnect.NewClient(config.AnkiOptions),
		parser: parser,
		ctx:    ctx,
		cancel: cancel,
	}

	a.setupUI()

	return a
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("QB → Anki Card Generator v%s", internal.Version))
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(960, 740))

	left := a.createLeftPane()

	a.inputTab = container.NewTabItem("① 問題を貼り付け", a.createInputTab())
	a.previewTab = container.NewTabItem("② プレビュー・送信", a.createPreviewTab())
	a.tabs = container.NewAppTabs(a.inputTab, a.previewTab)

	split := container.NewHSplit(left, a.tabs)
	split.SetOffset(0.22)

	a.statusLabel = widget.NewLabel(statusReady)
	a.statusLabel.TextStyle = fyne.TextStyle{Italic: true}
	a.logViewer = NewLogViewer()

	content := container.NewBorder(
		nil,
		container.NewVBox(widget.NewSeparator(), a.statusLabel, a.logViewer),
		nil, nil,
		split,
	)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))

	// Now that tooltip layer is created, set all tooltips
	a.setupTooltips()

	a.window.SetOnClosed(func() {
		a.cancel()
		a.wg.Wait()
	})

	a.setupKeyboardShortcuts()
}

func (a *Application) createLeftPane() fyne.CanvasObject {
	a.deckRadio = widget.NewRadioGroup(deckOptions(a.config.Deck), nil)
	a.deckRadio.Horizontal = true
	a.deckRadio.Required = true
	a.deckRadio.SetSelected(a.config.Deck)

	a.subjectSelect = widget.NewSelect(subjectOptions(), func(string) {
		a.refreshPreviewText()
	})
	if subject, ok := card.LookupSubject(a.config.Subject); ok && subject != "" {
		a.subjectSelect.SetSelected(subject)
	} else {
		a.subjectSelect.SetSelected(noSubject)
	}

	a.tagsEntry = NewCustomEntry()
	a.tagsEntry.SetPlaceHolder("例: 要復習, 頻出")
	a.tagsEntry.SetText(a.config.Tags)
	a.tagsEntry.SetOnEscape(func() { a.window.Canvas().Unfocus() })

	a.connectionLabel = widget.NewLabel("● 未確認")
	a.checkButton = ttwidget.NewButtonWithIcon("接続確認", theme.ViewRefreshIcon(), a.onCheckConnection)

	heading := func(text string) *widget.Label {
		return widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	}

	return container.NewVBox(
		heading("デッキ名"),
		a.deckRadio,
		heading("科目"),
		a.subjectSelect,
		heading("追加タグ（カンマ区切り）"),
		a.tagsEntry,
		widget.NewSeparator(),
		heading("AnkiConnect 状態"),
		a.connectionLabel,
		a.checkButton,
	)
}

func (a *Application) createInputTab() fyne.CanvasObject {
	hint := widget.NewLabel("QBオンラインの問題ページを全選択（Ctrl+A）してそのままコピペしてください。")
	hint.Wrapping = fyne.TextWrapWord

	a.input = NewCustomMultiLineEntry()
	a.input.SetPlaceHolder("ここに貼り付け... (Ctrl+Enter で解析)")
	a.input.SetOnEscape(func() { a.window.Canvas().Unfocus() })

	a.pasteButton = ttwidget.NewButtonWithIcon("クリップボードから貼り付け", theme.ContentPasteIcon(), a.onPasteClipboard)
	a.parseButton = ttwidget.NewButtonWithIcon("解析 → プレビュー", theme.NavigateNextIcon(), a.onParse)
	a.parseButton.Importance = widget.HighImportance

	buttons := container.NewHBox(a.pasteButton, layoutSpacer(), a.parseButton)

	return container.NewBorder(hint, buttons, nil, nil, a.input)
}

func (a *Application) createPreviewTab() fyne.CanvasObject {
	a.frontPreview = widget.NewLabel("")
	a.frontPreview.Wrapping = fyne.TextWrapWord
	a.backPreview = widget.NewLabel("")
	a.backPreview.Wrapping = fyne.TextWrapWord

	a.frontImage = NewImagePanel("表面", a.window)
	a.backImage = NewImagePanel("裏面", a.window)

	a.questionEdit = NewCustomMultiLineEntry()
	a.questionEdit.SetMinRowsVisible(3)
	a.questionEdit.OnChanged = func(string) { a.refreshPreviewText() }
	a.questionEdit.SetOnEscape(func() { a.window.Canvas().Unfocus() })

	a.correctEdit = NewCustomEntry()
	a.correctEdit.OnChanged = func(string) { a.refreshPreviewText() }
	a.correctEdit.SetOnEscape(func() { a.window.Canvas().Unfocus() })

	a.explanationEdit = NewCustomMultiLineEntry()
	a.explanationEdit.SetMinRowsVisible(8)
	a.explanationEdit.OnChanged = func(string) { a.refreshPreviewText() }
	a.explanationEdit.SetOnEscape(func() { a.window.Canvas().Unfocus() })

	a.explainButton = ttwidget.NewButtonWithIcon("解説を生成", theme.DocumentCreateIcon(), a.onExplain)
	if a.config.Explainer == nil {
		a.explainButton.Hide()
	}

	editForm := widget.NewForm(
		widget.NewFormItem("問題文", a.questionEdit),
		widget.NewFormItem("正解", a.correctEdit),
		widget.NewFormItem("解説", a.explanationEdit),
	)

	preview := container.NewVBox(
		widget.NewCard("FRONT（表面）", "", a.frontPreview),
		a.frontImage,
		widget.NewCard("BACK（裏面）", "", a.backPreview),
		a.backImage,
		widget.NewCard("手動修正（必要な場合のみ）", "", container.NewVBox(editForm, a.explainButton)),
	)

	a.backButton = ttwidget.NewButtonWithIcon("戻る", theme.NavigateBackIcon(), func() {
		a.tabs.Select(a.inputTab)
	})
	a.sendButton = ttwidget.NewButtonWithIcon("Ankiに追加する", theme.UploadIcon(), a.onSend)
	a.sendButton.Importance = widget.HighImportance
	a.sendButton.Disable()

	a.resultLabel = widget.NewLabel("")

	buttons := container.NewHBox(a.backButton, layoutSpacer(), a.resultLabel, a.sendButton)

	return container.NewBorder(nil, buttons, nil, nil, container.NewVScroll(preview))
}

func (a *Application) setupTooltips() {
	a.checkButton.SetToolTip("AnkiConnect に接続できるか確認")
	a.pasteButton.SetToolTip("クリップボードのテキストを入力欄に貼り付け")
	a.parseButton.SetToolTip("解析してプレビューへ (Ctrl+Enter)")
	a.explainButton.SetToolTip("解説が空のときにAIで下書きを作成")
	a.backButton.SetToolTip("貼り付けに戻る")
	a.sendButton.SetToolTip("Ankiに追加 (Ctrl+Enter / Ctrl+S)")
	a.frontImage.SetToolTips()
	a.backImage.SetToolTips()
}

func (a *Application) setupKeyboardShortcuts() {
	// Ctrl+Enter parses on the first tab and sends on the second
	a.window.Canvas().AddShortcut(submitShortcut, func(fyne.Shortcut) {
		a.onSubmit()
	})

	// Focused entries receive shortcuts before the canvas
	a.input.SetOnSubmit(a.onSubmit)
	a.questionEdit.SetOnSubmit(a.onSubmit)
	a.explanationEdit.SetOnSubmit(a.onSubmit)

	// Ctrl+V outside an entry pastes a clipboard image, front first
	a.window.Canvas().AddShortcut(&fyne.ShortcutPaste{}, func(fyne.Shortcut) {
		if a.tabs.Selected() != a.previewTab {
			return
		}
		a.pastePanel().PasteClipboard()
	})

	// Ctrl+S sends
	send := &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}
	a.window.Canvas().AddShortcut(send, func(fyne.Shortcut) {
		if !a.sendButton.Disabled() {
			a.onSend()
		}
	})
}

// pastePanel is the image panel a clipboard image goes to
func (a *Application) pastePanel() *ImagePanel {
	if a.frontImage.Image() == nil {
		return a.frontImage
	}
	return a.backImage
}

func (a *Application) onSubmit() {
	if a.tabs.Selected() == a.inputTab {
		a.onParse()
	} else if !a.sendButton.Disabled() {
		a.onSend()
	}
}

// Run starts the GUI application
func (a *Application) Run() {
	a.window.ShowAndRun()
}

// onPasteClipboard replaces the input with the clipboard text
func (a *Application) onPasteClipboard() {
	text := a.window.Clipboard().Content()
	if strings.TrimSpace(text) == "" {
		a.updateStatus("クリップボードにテキストがありません")
		return
	}
	a.input.SetText(text)
	a.updateStatus("クリップボードから貼り付けました")
}

// onParse classifies the pasted text and switches to the preview tab
func (a *Application) onParse() {
	text := strings.TrimSpace(a.input.Text)
	if text == "" {
		dialog.ShowInformation("入力なし", "問題テキストを貼り付けてください。", a.window)
		return
	}

	parsed := a.parser.Parse(text)
	if parsed.IsEmpty() {
		dialog.ShowInformation("解析できません", "問題として認識できる行がありませんでした。", a.window)
		return
	}

	a.mu.Lock()
	a.parsed = &parsed
	a.mu.Unlock()

	a.showParsed(parsed)
	a.tabs.Select(a.previewTab)

	a.logViewer.Log("解析: 選択肢 %d 件, 正解 %s", len(parsed.Choices), orDash(parsed.Correct))
	if len(parsed.Choices) == 0 || parsed.Correct == "" {
		a.updateStatus("選択肢または正解が見つかりません。手動修正を確認してください")
	} else {
		a.updateStatus("解析しました")
	}
}

// showParsed fills the preview tab from a freshly parsed question
func (a *Application) showParsed(parsed qbparse.ParsedQuestion) {
	a.frontImage.Clear()
	a.backImage.Clear()

	a.questionEdit.SetText(parsed.Question)
	a.correctEdit.SetText(parsed.Correct)
	a.explanationEdit.SetText(parsed.Explanation)

	a.resultLabel.SetText("")
	a.sendButton.Enable()
	a.refreshPreviewText()
}

// edited returns the parsed question with the manual corrections applied
func (a *Application) edited() (qbparse.ParsedQuestion, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.parsed == nil {
		return qbparse.ParsedQuestion{}, false
	}
	return a.parsed.Edit(a.questionEdit.Text, a.correctEdit.Text, a.explanationEdit.Text), true
}

func (a *Application) refreshPreviewText() {
	if a.frontPreview == nil {
		// Called while the left pane is built
		return
	}

	q, ok := a.edited()
	if !ok {
		a.frontPreview.SetText("")
		a.backPreview.SetText("")
		return
	}

	front := q.FrontText()
	if subject := subjectFromOption(a.subjectSelect.Selected); subject != "" {
		front = "[" + subject + "]\n" + front
	}
	a.frontPreview.SetText(front)
	a.backPreview.SetText(q.BackText())
}

// onSend renders the card and adds it through AnkiConnect
func (a *Application) onSend() {
	q, ok := a.edited()
	if !ok {
		dialog.ShowInformation("未解析", "先に問題を解析してください。", a.window)
		return
	}

	req, err := buildNoteRequest(cardInput{
		Parsed:     q,
		Deck:       a.deckRadio.Selected,
		Subject:    subjectFromOption(a.subjectSelect.Selected),
		Tags:       a.tagsEntry.Text,
		FrontImage: a.frontImage.Image(),
		BackImage:  a.backImage.Image(),
	})
	if err != nil {
		a.showError(err)
		return
	}

	a.sendButton.Disable()
	a.resultLabel.SetText("送信中...")
	a.resultLabel.Importance = widget.MediumImportance
	a.resultLabel.Refresh()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		id, err := a.client.AddCard(a.ctx, req)

		fyne.Do(func() {
			if err != nil {
				a.sendButton.Enable()
				a.setResult("✗ 失敗", widget.DangerImportance)
				a.logViewer.Log("送信失敗: %v", err)
				a.showError(sendError(err))
				return
			}

			a.setResult("✓ 追加しました", widget.SuccessImportance)
			a.logViewer.Log("ノート %d を %s に追加: %s", id, req.Deck, firstLine(q.Question))
			a.updateStatus(addedStatus(id, req.Deck))
			a.reset()
		})
	}()
}

// reset clears the paste and the parsed state after a successful send
func (a *Application) reset() {
	a.mu.Lock()
	a.parsed = nil
	a.mu.Unlock()

	a.input.SetText("")
	a.questionEdit.SetText("")
	a.correctEdit.SetText("")
	a.explanationEdit.SetText("")
	a.frontImage.Clear()
	a.backImage.Clear()
	a.sendButton.Disable()
	a.refreshPreviewText()

	a.tabs.Select(a.inputTab)
}

// onCheckConnection asks AnkiConnect for its version
func (a *Application) onCheckConnection() {
	a.checkButton.Disable()
	a.connectionLabel.SetText("● 確認中...")

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		version, err := a.client.Version(a.ctx)

		fyne.Do(func() {
			a.checkButton.Enable()
			text, importance := connectionStatus(version, err)
			a.connectionLabel.SetText(text)
			a.connectionLabel.Importance = importance
			a.connectionLabel.Refresh()

			if err != nil {
				a.logViewer.Log("接続失敗: %v", err)
				dialog.ShowError(fmt.Errorf("AnkiConnectに接続できません。\n\n%s", ankiHelp), a.window)
				return
			}
			a.logViewer.Log("AnkiConnect %s に接続 (v%d)", a.client.URL(), version)
		})
	}()
}

// onExplain drafts an explanation for the current question
func (a *Application) onExplain() {
	q, ok := a.edited()
	if !ok || a.config.Explainer == nil {
		return
	}
	if strings.TrimSpace(q.Explanation) != "" {
		dialog.ShowConfirm("解説の上書き", "既存の解説を置き換えますか？", func(replace bool) {
			if replace {
				a.runExplain(q)
			}
		}, a.window)
		return
	}
	a.runExplain(q)
}

func (a *Application) runExplain(q qbparse.ParsedQuestion) {
	a.explainButton.Disable()
	a.updateStatus("解説を生成中...")

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		explanation, err := a.config.Explainer.Explain(a.ctx, q)

		fyne.Do(func() {
			a.explainButton.Enable()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					a.showError(fmt.Errorf("解説の生成に失敗しました: %w", err))
				}
				return
			}
			a.explanationEdit.SetText(explanation)
			a.updateStatus("解説を生成しました（内容を確認してください）")
			a.logViewer.Log("解説を生成: %s", firstLine(q.Question))
		})
	}()
}

// Helper methods

func (a *Application) setResult(text string, importance widget.Importance) {
	a.resultLabel.SetText(text)
	a.resultLabel.Importance = importance
	a.resultLabel.Refresh()
}

func (a *Application) updateStatus(message string) {
	a.statusLabel.SetText(message)
}

func (a *Application) showError(err error) {
	dialog.ShowError(err, a.window)
	a.updateStatus(errorStatus(err))
}

func layoutSpacer() fyne.CanvasObject {
	return container.NewStack()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
