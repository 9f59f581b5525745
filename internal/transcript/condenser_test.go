package transcript

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"hello world", 8, "hello..."},
		{"hello world", 0, "hello world"},
		{"hello", 2, "he"},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestCondenseKeepsHeadAndTail(t *testing.T) {
	text := "START " + strings.Repeat("x", 5000) + " END"
	got := Condense(text, 300)

	if n := utf8.RuneCountInString(got); n != 300 {
		t.Errorf("len = %d, want 300", n)
	}
	if !strings.HasPrefix(got, "START") || !strings.HasSuffix(got, "END") {
		t.Errorf("head or tail lost: %q...%q", got[:10], got[len(got)-10:])
	}
	if !strings.Contains(got, "[...]") {
		t.Error("missing gap marker")
	}

	if Condense("fits", 300) != "fits" {
		t.Error("short text should be unchanged")
	}
}

func TestSummarizeBounded(t *testing.T) {
	ex := Exchange{
		User:      strings.Repeat("why is this broken ", 100),
		Assistant: strings.Repeat("let me check the logs\n", 100),
	}
	got := Summarize(ex, 500)

	if n := utf8.RuneCountInString(got); n > 500 {
		t.Errorf("summary has %d runes, want <= 500", n)
	}
	if !strings.HasPrefix(got, "User: why is this broken") {
		t.Errorf("unexpected prefix: %q", got[:30])
	}
	if !strings.Contains(got, "\nAssistant: let me check the logs let me") {
		t.Errorf("assistant line not flattened: %q", got)
	}
}

func TestSummarizeShortUserGivesRestToAssistant(t *testing.T) {
	ex := Exchange{User: "thanks!", Assistant: strings.Repeat("a", 1000)}
	got := Summarize(ex, 500)
	if n := utf8.RuneCountInString(got); n != 500 {
		t.Errorf("summary has %d runes, want exactly 500", n)
	}
	if !strings.HasPrefix(got, "User: thanks!\n") {
		t.Errorf("user line truncated: %q", got[:20])
	}
}

func TestSummarizeTinyBudget(t *testing.T) {
	got := Summarize(Exchange{User: "hello there", Assistant: "general kenobi"}, 25)
	if n := utf8.RuneCountInString(got); n > 25 {
		t.Errorf("summary has %d runes, want <= 25", n)
	}
}
