package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// CustomMultiLineEntry extends widget.Entry to handle Escape key
type CustomMultiLineEntry struct {
	widget.Entry
	onEscape func()
	onSubmit func()
}

// NewCustomMultiLineEntry creates a new custom multi-line entry
func NewCustomMultiLineEntry() *CustomMultiLineEntry {
	entry := &CustomMultiLineEntry{}
	entry.MultiLine = true
	entry.Wrapping = fyne.TextWrapWord
	entry.ExtendBaseWidget(entry)
	return entry
}

// TypedKey handles key events
func (e *CustomMultiLineEntry) TypedKey(key *fyne.KeyEvent) {
	if key.Name == fyne.KeyEscape && e.onEscape != nil {
		e.onEscape()
		return
	}
	e.Entry.TypedKey(key)
}

// SetOnEscape sets the callback for when Escape is pressed
func (e *CustomMultiLineEntry) SetOnEscape(f func()) {
	e.onEscape = f
}

// TypedShortcut runs the submit callback on Ctrl+Enter
func (e *CustomMultiLineEntry) TypedShortcut(shortcut fyne.Shortcut) {
	if isSubmit(shortcut) && e.onSubmit != nil {
		e.onSubmit()
		return
	}
	e.Entry.TypedShortcut(shortcut)
}

// SetOnSubmit sets the callback for Ctrl+Enter
func (e *CustomMultiLineEntry) SetOnSubmit(f func()) {
	e.onSubmit = f
}

// submitShortcut is Ctrl+Enter (Cmd+Enter on macOS)
var submitShortcut = &desktop.CustomShortcut{KeyName: fyne.KeyReturn, Modifier: fyne.KeyModifierShortcutDefault}

func isSubmit(shortcut fyne.Shortcut) bool {
	custom, ok := shortcut.(*desktop.CustomShortcut)
	if !ok {
		return false
	}
	return (custom.KeyName == fyne.KeyReturn || custom.KeyName == fyne.KeyEnter) &&
		custom.Modifier == fyne.KeyModifierShortcutDefault
}

// CustomEntry extends widget.Entry to handle Escape key (single-line version)
type CustomEntry struct {
	widget.Entry
	onEscape func()
}

// NewCustomEntry creates a new custom single-line entry
func NewCustomEntry() *CustomEntry {
	entry := &CustomEntry{}
	entry.ExtendBaseWidget(entry)
	return entry
}

// TypedKey handles key events
func (e *CustomEntry) TypedKey(key *fyne.KeyEvent) {
	if key.Name == fyne.KeyEscape && e.onEscape != nil {
		e.onEscape()
		return
	}
	e.Entry.TypedKey(key)
}

// SetOnEscape sets the callback for when Escape is pressed
func (e *CustomEntry) SetOnEscape(f func()) {
	e.onEscape = f
}
