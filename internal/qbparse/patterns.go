package qbparse

import "regexp"

// ExplanationMarker is the heading line that separates the question body
// from its explanation.
const ExplanationMarker = "解説"

const (
	// sp also matches the Unicode spaces found in copied web text: NBSP,
	// the ideographic space and the rest of category Z.
	sp = `[\s\p{Z}\x{85}]`
	// digit also matches full-width digits.
	digit = `[0-9０-９]`
	// token is a single choice enumerator.
	token = `[a-eA-Eａ-ｅＡ-Ｅ1-5１-５①-⑤]`
)

// DefaultNoisePatterns are the page-chrome lines dropped before any line is
// classified. They are matched against the trimmed line.
var DefaultNoisePatterns = []string{
	`^` + digit + `{4}` + sp + `+` + digit + `+-` + digit + `+`,
	`^基準値$`,
	`^` + digit + `+-` + digit + `+$`,
	`^リトライ$`,
	`^\[掲載頁`,
	`^ID` + sp + `*:`,
	`^解答[:：]?` + sp + `*$`,
	`^結果[:：]?` + sp + `*$`,
	`^履歴`,
	`^自分が登録`,
	`^` + digit + `{4}/` + digit + `{1,2}/` + digit + `{1,2}`,
	`^\*` + sp + `*$`,
	`[○◯]` + sp + `*正解`,
	`^[×x]` + sp + `*不正解`,
	`^ガイドライン$`,
	`^基本事項など`,
}

var (
	correctRe     = regexp.MustCompile(`(?i)^正解[:：]?` + sp + `*(` + token + `)`)
	choiceRe      = regexp.MustCompile(`^\*` + sp + `*` + token + sp)
	choiceLeadRe  = regexp.MustCompile(`^\*` + sp + `*`)
	defaultNoise  = mustCompileAll(DefaultNoisePatterns)
	defaultParser = &Parser{noise: defaultNoise}
)

func mustCompileAll(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}
