package gui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// LogViewer is a widget that lists what happened in this session, newest
// first: parses, sends and failures
type LogViewer struct {
	widget.BaseWidget

	container  *fyne.Container
	logEntry   *widget.Entry
	scrollView *container.Scroll

	mu          sync.Mutex
	messages    []string
	maxMessages int

	now func() time.Time
}

// NewLogViewer creates a new log viewer widget
func NewLogViewer() *LogViewer {
	v := &LogViewer{
		maxMessages: 200,
		messages:    make([]string, 0),
		now:         time.Now,
	}

	// Create log entry (read-only multiline)
	v.logEntry = widget.NewMultiLineEntry()
	v.logEntry.Disable()
	v.logEntry.Wrapping = fyne.TextWrapWord

	v.scrollView = container.NewScroll(v.logEntry)
	v.scrollView.SetMinSize(fyne.NewSize(0, 90))

	v.container = container.NewBorder(
		widget.NewLabel("ログ（新しい順）"),
		nil,
		nil,
		nil,
		v.scrollView,
	)

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *LogViewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.container)
}

// AddMessage adds a timestamped message to the log. Safe to call from
// any goroutine.
func (v *LogViewer) AddMessage(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fullMessage := fmt.Sprintf("[%s] %s", v.now().Format("15:04:05"), message)

	// Prepend to messages (newest first)
	v.messages = append([]string{fullMessage}, v.messages...)
	if len(v.messages) > v.maxMessages {
		v.messages = v.messages[:v.maxMessages]
	}
	text := strings.Join(v.messages, "\n")

	fyne.Do(func() {
		v.logEntry.SetText(text)
		v.scrollView.Offset = fyne.NewPos(0, 0)
		v.scrollView.Refresh()
	})
}

// Messages returns a copy of the logged messages, newest first
func (v *LogViewer) Messages() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	messages := make([]string, len(v.messages))
	copy(messages, v.messages)
	return messages
}

// Clear clears all log messages
func (v *LogViewer) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.messages = v.messages[:0]

	fyne.Do(func() {
		v.logEntry.SetText("")
		v.scrollView.Offset = fyne.NewPos(0, 0)
		v.scrollView.Refresh()
	})
}

// Log adds a formatted message
func (v *LogViewer) Log(format string, args ...interface{}) {
	v.AddMessage(fmt.Sprintf(format, args...))
}
