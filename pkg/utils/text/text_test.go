package text

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateShortStringUnchanged(t *testing.T) {
	if got := Truncate("hello", 5, "..."); got != "hello" {
		t.Fatalf("Truncate = %q", got)
	}
}

func TestTruncateASCII(t *testing.T) {
	if got := Truncate("abcdef", 3, "..."); got != "abc..." {
		t.Fatalf("Truncate = %q", got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("简历", 3) // 6 runes, 18 bytes
	got := Truncate(s, 5, "...")
	if !utf8.ValidString(got) {
		t.Fatalf("invalid utf-8: %q", got)
	}
	if got != "简历简历简..." {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("é", 0, ""); got != "" {
		t.Fatalf("zero limit = %q", got)
	}
}
