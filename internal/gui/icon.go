package gui

import (
	"fyne.io/fyne/v2"
)

// iconSVG is a teal card with a medical cross
const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 256 256">
<rect x="16" y="40" width="224" height="176" rx="24" fill="#0d1526"/>
<rect x="28" y="52" width="200" height="152" rx="16" fill="#0d7377"/>
<path d="M112 80h32v32h32v32h-32v32h-32v-32H80v-32h32z" fill="#ffffff"/>
</svg>`

// GetAppIcon returns the application icon as a Fyne resource
func GetAppIcon() fyne.Resource {
	return &fyne.StaticResource{
		StaticName:    "qb2anki.svg",
		StaticContent: []byte(iconSVG),
	}
}
