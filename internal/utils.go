package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// GenerateNoteGUID derives a stable note GUID from the front of a card,
// so exporting the same question twice yields the same Anki note.
// Format: qb_md5(front)[:16]
func GenerateNoteGUID(front string) string {
	hash := md5.Sum([]byte(front))
	return fmt.Sprintf("qb_%s", hex.EncodeToString(hash[:])[:16])
}

// SanitizeFilename creates a safe filename from a string. Letters and
// digits of any script are kept, so Japanese deck names survive.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
