package image

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	"sync"

	"golang.design/x/clipboard"
)

// ClipboardSource is the image source name that reads the system clipboard
const ClipboardSource = "clipboard"

// ErrNoClipboardImage is returned when the clipboard holds no image
var ErrNoClipboardImage = errors.New("クリップボードに画像がありません")

var clipboardInit = sync.OnceValue(clipboard.Init)

// readClipboard returns the PNG bytes of the clipboard image, empty when
// there is none. Tests replace it.
var readClipboard = func() ([]byte, error) {
	// Init fails without cgo or without a display
	if err := clipboardInit(); err != nil {
		return nil, fmt.Errorf("clipboard unavailable: %w", err)
	}
	return clipboard.Read(clipboard.FmtImage), nil
}

// FromClipboard decodes the image currently on the clipboard.
func FromClipboard() (stdimage.Image, error) {
	data, err := readClipboard()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoClipboardImage
	}
	return Decode(bytes.NewReader(data))
}
