package controllers

import (
	"strings"
	"testing"
)

func TestCaptionPreview(t *testing.T) {
	if got := CaptionPreview("short caption"); got != "short caption" {
		t.Fatalf("short caption altered: %q", got)
	}

	exactly50 := strings.Repeat("a", 50)
	if got := CaptionPreview(exactly50); got != exactly50 {
		t.Fatalf("50-rune caption must not be truncated: %q", got)
	}

	long := strings.Repeat("a", 51)
	if got := CaptionPreview(long); got != strings.Repeat("a", 50)+"..." {
		t.Fatalf("long caption preview wrong: %q", got)
	}

	// Truncation counts runes, not bytes.
	wide := strings.Repeat("é", 60)
	want := strings.Repeat("é", 50) + "..."
	if got := CaptionPreview(wide); got != want {
		t.Fatalf("multibyte caption preview wrong: %q", got)
	}
}

func TestCommentPreview(t *testing.T) {
	if got := CommentPreview("line one\nline two"); got != "line one line two" {
		t.Fatalf("newlines should flatten to spaces: %q", got)
	}

	long := "x\n" + strings.Repeat("y", 60)
	got := CommentPreview(long)
	if strings.Contains(got, "\n") {
		t.Fatalf("preview still contains newline: %q", got)
	}
	if got != "x "+strings.Repeat("y", 48)+"..." {
		t.Fatalf("long comment preview wrong: %q", got)
	}
}
