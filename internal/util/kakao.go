package util

import "strings"

// KakaoTalk collapses long messages behind a "전체보기" link once the preview
// exceeds roughly 500 characters. Zero-width spaces push the body past it.
const (
	KakaoSeeMorePadding = 500
	KakaoZeroWidthSpace = "\u200b"
)

var seeMoreFill = strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding)

// SeeMore keeps header visible in the chat preview and folds body behind the
// "전체보기" link. Empty bodies are returned unchanged.
func SeeMore(body, header string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	header = strings.TrimSpace(header)
	sep := "\n"
	if strings.HasPrefix(body, "\n") {
		sep = ""
	}
	return header + seeMoreFill + sep + body
}

// Folded reports whether text already carries the see-more fill.
func Folded(text string) bool {
	return strings.Contains(text, seeMoreFill)
}
