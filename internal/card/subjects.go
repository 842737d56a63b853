package card

import "strings"

// Subjects lists the QB subject categories. The empty entry means "no
// subject".
var Subjects = []string{
	"",
	"A 消化管", "B 肝・胆・膵", "C 循環器", "D 代謝・内分泌",
	"E 腎・泌尿器", "F 免疫・膠原病", "G 血液", "H 感染症",
	"I 呼吸器", "J 神経", "K 中毒", "L 救急", "M 麻酔科",
	"N 医学総論", "O 小児科", "P 婦人科", "Q 産科", "R 眼科",
	"S 耳鼻咽喉科", "T 整形外科", "U 精神科", "V 皮膚科",
	"W 泌尿器科", "X 放射線科", "Y 公衆衛生", "Z 必修問題",
}

// Decks are the target decks offered for new notes.
var Decks = []string{"国試", "CBT"}

// DefaultDeck is the deck used when none is chosen.
const DefaultDeck = "国試"

// SourceTag is attached to every generated note.
const SourceTag = "QB"

// LookupSubject resolves a subject by its full name or by its leading
// letter (case-insensitive). The empty string resolves to no subject.
func LookupSubject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	for _, subject := range Subjects[1:] {
		if subject == s {
			return subject, true
		}
		if letter, _, ok := strings.Cut(subject, " "); ok && strings.EqualFold(letter, s) {
			return subject, true
		}
	}
	return "", false
}

// BuildTags returns the tags for a note: the subject tag if any, the
// source tag, then the comma-separated extra tags.
func BuildTags(subject, extra string) []string {
	var tags []string
	if subject = strings.TrimSpace(subject); subject != "" {
		tags = append(tags, "科目::"+subject)
	}
	tags = append(tags, SourceTag)

	for _, tag := range strings.Split(extra, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
