package gui

import (
	"context"
	"fmt"
	stdimage "image"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/qb2anki/internal/image"
)

// ImagePanel holds the optional image for one side of the card
type ImagePanel struct {
	widget.BaseWidget

	container   *fyne.Container
	imageCanvas *canvas.Image
	imageLabel  *widget.Label

	fileButton  *ttwidget.Button
	pasteButton *ttwidget.Button
	urlButton   *ttwidget.Button
	clearButton *ttwidget.Button

	window fyne.Window
	side   string
	img    stdimage.Image

	// onChange is called after the image was set or cleared
	onChange func()

	// readClipboard returns the clipboard image
	readClipboard func() (stdimage.Image, error)
}

// NewImagePanel creates an image panel; side is the label shown in the
// header, e.g. "表面"
func NewImagePanel(side string, window fyne.Window) *ImagePanel {
	p := &ImagePanel{side: side, window: window, readClipboard: image.FromClipboard}

	p.imageCanvas = canvas.NewImageFromResource(nil)
	p.imageCanvas.FillMode = canvas.ImageFillContain
	p.imageCanvas.SetMinSize(fyne.NewSize(image.PreviewWidth, 0))
	p.imageCanvas.Hide()

	p.imageLabel = widget.NewLabel("（画像なし）")

	p.fileButton = ttwidget.NewButtonWithIcon("ファイル選択", theme.FolderOpenIcon(), p.pickFile)
	p.pasteButton = ttwidget.NewButtonWithIcon("Ctrl+V 貼り付け", theme.ContentPasteIcon(), p.PasteClipboard)
	p.urlButton = ttwidget.NewButtonWithIcon("URL", theme.DownloadIcon(), p.askURL)
	p.clearButton = ttwidget.NewButtonWithIcon("削除", theme.DeleteIcon(), p.Clear)
	p.clearButton.Importance = widget.DangerImportance
	p.clearButton.Disable()

	header := container.NewHBox(
		widget.NewLabelWithStyle(fmt.Sprintf("%sの画像（任意）", side), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		p.fileButton,
		p.pasteButton,
		p.urlButton,
		p.clearButton,
	)

	p.container = container.NewVBox(header, p.imageCanvas, p.imageLabel)

	p.ExtendBaseWidget(p)
	return p
}

// CreateRenderer implements fyne.Widget
func (p *ImagePanel) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.container)
}

// SetToolTips sets the button tooltips; call after the tooltip layer exists
func (p *ImagePanel) SetToolTips() {
	p.fileButton.SetToolTip(fmt.Sprintf("%sに埋め込む画像ファイルを選択 (PNG, JPEG, GIF, BMP)", p.side))
	p.pasteButton.SetToolTip("クリップボードの画像を貼り付け (スクリーンショットなど)")
	p.urlButton.SetToolTip("画像URLから取得")
	p.clearButton.SetToolTip("画像を削除")
}

// Image returns the selected image or nil
func (p *ImagePanel) Image() stdimage.Image {
	return p.img
}

// SetImage shows img scaled to the preview width
func (p *ImagePanel) SetImage(img stdimage.Image, name string) {
	if img == nil {
		p.Clear()
		return
	}

	p.img = img
	p.imageCanvas.Image = image.Fit(img, image.PreviewWidth)
	b := p.imageCanvas.Image.Bounds()
	p.imageCanvas.SetMinSize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
	p.imageCanvas.Show()
	p.imageCanvas.Refresh()

	bounds := img.Bounds()
	p.imageLabel.SetText(fmt.Sprintf("%s (%dx%d)", name, bounds.Dx(), bounds.Dy()))
	p.clearButton.Enable()

	if p.onChange != nil {
		p.onChange()
	}
}

// Clear removes the image
func (p *ImagePanel) Clear() {
	p.img = nil
	p.imageCanvas.Image = nil
	p.imageCanvas.Hide()
	p.imageCanvas.Refresh()
	p.imageLabel.SetText("（画像なし）")
	p.clearButton.Disable()

	if p.onChange != nil {
		p.onChange()
	}
}

// PasteClipboard takes the image from the clipboard
func (p *ImagePanel) PasteClipboard() {
	img, err := p.readClipboard()
	if err != nil {
		dialog.ShowError(err, p.window)
		return
	}
	p.SetImage(img, "クリップボード")
}

// SetOnChange sets the callback run after the image changes
func (p *ImagePanel) SetOnChange(f func()) {
	p.onChange = f
}

func (p *ImagePanel) pickFile() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, p.window)
			return
		}
		if reader == nil {
			// Cancelled
			return
		}
		defer reader.Close()

		img, err := image.Decode(reader)
		if err != nil {
			dialog.ShowError(err, p.window)
			return
		}
		p.SetImage(img, reader.URI().Name())
	}, p.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}))
	d.Show()
}

func (p *ImagePanel) askURL() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://...")

	dialog.ShowForm("画像URL", "取得", "キャンセル",
		[]*widget.FormItem{widget.NewFormItem("URL", entry)},
		func(ok bool) {
			url := strings.TrimSpace(entry.Text)
			if !ok || url == "" {
				return
			}
			p.imageLabel.SetText("取得中...")

			go func() {
				img, err := image.Fetch(context.Background(), url, image.DefaultFetchOptions())
				fyne.Do(func() {
					if err != nil {
						p.imageLabel.SetText("（画像なし）")
						dialog.ShowError(err, p.window)
						return
					}
					p.SetImage(img, url)
				})
			}()
		}, p.window)
}
