package util

import (
	"strings"
	"testing"
	"time"
)

func TestSeeMore(t *testing.T) {
	out := SeeMore("line1\nline2", " 헤더 ")
	if !strings.HasPrefix(out, "헤더"+KakaoZeroWidthSpace) || !strings.HasSuffix(out, "\nline1\nline2") {
		t.Fatalf("SeeMore = %q", out)
	}
	if strings.Count(out, KakaoZeroWidthSpace) != KakaoSeeMorePadding || !Folded(out) {
		t.Fatalf("padding count = %d", strings.Count(out, KakaoZeroWidthSpace))
	}
	if got := SeeMore("\nbody", ""); strings.Contains(got, "\n\n") {
		t.Fatalf("double newline: %q", got)
	}
	if SeeMore("  ", "h") != "  " || Folded("plain") {
		t.Fatalf("empty body should pass through")
	}
}

func TestFormatKST(t *testing.T) {
	ts := time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC)
	if got := FormatKST(ts, "2006-01-02 15:04"); got != "2025-01-02 00:30" {
		t.Fatalf("FormatKST = %q", got)
	}
}
