package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLines(t *testing.T) {
	lines := `{"type":"user","message":{"role":"user","content":"Hello, help me with Go code"}}
{"type":"assistant","message":{"role":"assistant","content":"Sure, I can help with Go."}}
{"type":"user","message":{"role":"user","content":"Write a function to sort a slice"}}
{"type":"assistant","message":{"role":"assistant","content":"Here is a sort function for you."}}`

	turns, err := ParseLines(lines)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}

	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}

	if turns[0].Type != "user" {
		t.Errorf("entry[0].Type = %q, want user", turns[0].Type)
	}
	if turns[0].Text != "Hello, help me with Go code" {
		t.Errorf("entry[0].Text = %q", turns[0].Text)
	}
	if turns[1].Type != "assistant" {
		t.Errorf("entry[1].Type = %q, want assistant", turns[1].Type)
	}
}

func TestParseLinesContentArray(t *testing.T) {
	lines := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Here is the code:"},{"type":"tool_use","id":"tu_1","name":"Write"}]}}`

	turns, err := ParseLines(lines)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}

	if len(turns) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(turns))
	}
	if turns[0].Text != "Here is the code:" {
		t.Errorf("text = %q, want 'Here is the code:'", turns[0].Text)
	}
}

func TestParseLinesSkipsShort(t *testing.T) {
	lines := `{"type":"user","message":{"role":"user","content":"ok"}}
{"type":"user","message":{"role":"user","content":"yes"}}
{"type":"user","message":{"role":"user","content":"This is a real message"}}`

	turns, err := ParseLines(lines)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}

	// "ok" and "yes" are < 5 chars, should be skipped
	if len(turns) != 1 {
		t.Fatalf("expected 1 entry (skipping short), got %d", len(turns))
	}
}

func TestParseLinesSkipsJSON(t *testing.T) {
	lines := `{"type":"user","message":{"role":"user","content":"{\"json\":\"data\"}"}}
{"type":"user","message":{"role":"user","content":"Real user message here"}}`

	turns, err := ParseLines(lines)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}

	if len(turns) != 1 {
		t.Fatalf("expected 1 entry (skipping JSON-like), got %d", len(turns))
	}
}

func TestParseLinesStripsSystemReminder(t *testing.T) {
	lines := `{"type":"user","message":{"role":"user","content":"Do something <system-reminder>ignore this</system-reminder> please help"}}`

	turns, err := ParseLines(lines)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}

	if len(turns) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(turns))
	}
	if strings.Contains(turns[0].Text, "system-reminder") {
		t.Errorf("system-reminder not stripped: %q", turns[0].Text)
	}
	if turns[0].Text != "Do something  please help" {
		t.Errorf("text = %q, want 'Do something  please help'", turns[0].Text)
	}
}

func TestParseLinesSkipsNonConversation(t *testing.T) {
	lines := `{"type":"system","message":{"role":"system","content":"Session resumed after compaction"}}
{"type":"summary","summary":"earlier work"}
{"type":"user","message":{"role":"user","content":"Real user message here"}}`

	turns, err := ParseLines(lines)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}
	if len(turns) != 1 || turns[0].Type != "user" {
		t.Fatalf("expected only the user turn, got %+v", turns)
	}
}

func TestParseLinesMalformed(t *testing.T) {
	lines := `not json at all
{"type":"user","message":{"role":"user","content":"Valid message here"}}
{broken json`

	turns, err := ParseLines(lines)
	if err != nil {
		t.Fatalf("ParseLines: %v", err)
	}

	// Should skip malformed, keep valid
	if len(turns) != 1 {
		t.Fatalf("expected 1 valid entry, got %d", len(turns))
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	content := `{"type":"user","message":{"role":"user","content":"Why does this test keep failing?"}}
{"type":"assistant","message":{"role":"assistant","content":"Let me look at the fixture."}}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	turns, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLastExchange(t *testing.T) {
	turns := []Turn{
		{Type: "assistant", Text: "Welcome back."},
		{Type: "user", Text: "First question"},
		{Type: "assistant", Text: "First answer"},
		{Type: "user", Text: "This is so frustrating, nothing works"},
		{Type: "assistant", Text: "Let's slow down."},
		{Type: "assistant", Text: "Try the minimal repro first."},
	}

	ex := LastExchange(turns)
	if ex.User != "This is so frustrating, nothing works" {
		t.Errorf("User = %q", ex.User)
	}
	if ex.Assistant != "Let's slow down.\n\nTry the minimal repro first." {
		t.Errorf("Assistant = %q", ex.Assistant)
	}
	if LastUserMessage(turns) != ex.User {
		t.Errorf("LastUserMessage mismatch")
	}
}

func TestLastExchangeNoUser(t *testing.T) {
	ex := LastExchange([]Turn{{Type: "assistant", Text: "hello there"}})
	if !ex.Empty() {
		t.Errorf("expected empty exchange, got %+v", ex)
	}
	if !LastExchange(nil).Empty() {
		t.Error("expected empty exchange for nil")
	}
}
