// Package transcript reads Claude Code JSONL transcripts and reduces them to
// the conversational text the emotion classifier consumes.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Entry represents a single line in a Claude Code JSONL transcript.
type Entry struct {
	Type    string          `json:"type"` // "user", "assistant", "system"
	Message json.RawMessage `json:"message"`
}

// Message is the parsed message content.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"` // string or []ContentItem
}

// ContentItem represents a single content block (text, tool_use, tool_result).
type ContentItem struct {
	Type string `json:"type"` // "text", "tool_use", "tool_result"
	Text string `json:"text,omitempty"`
}

// Turn is one conversational message with its plain text.
type Turn struct {
	Type string // "user" or "assistant"
	Text string
}

// Exchange is one user message and the assistant's reply to it.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Empty reports whether neither side has text.
func (e Exchange) Empty() bool {
	return strings.TrimSpace(e.User) == "" && strings.TrimSpace(e.Assistant) == ""
}

var systemReminderRe = regexp.MustCompile(`<system-reminder>[\s\S]*?</system-reminder>`)

// minTurnLen drops acknowledgements like "ok" that carry no affect.
const minTurnLen = 5

// ParseFile reads a JSONL transcript file and returns its turns.
func ParseFile(path string) ([]Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads JSONL transcript lines from r, skipping malformed lines.
func Parse(r io.Reader) ([]Turn, error) {
	var turns []Turn
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 4*1024*1024) // tool output lines can be large

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		turn, err := parseLine(line)
		if err != nil || turn == nil {
			continue
		}
		turns = append(turns, *turn)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return turns, nil
}

// ParseLines parses transcript content from a string.
func ParseLines(content string) ([]Turn, error) {
	return Parse(strings.NewReader(content))
}

func parseLine(line []byte) (*Turn, error) {
	var entry Entry
	if err := json.Unmarshal(line, &entry); err != nil {
		return nil, err
	}
	if entry.Type != "user" && entry.Type != "assistant" {
		return nil, nil
	}
	if entry.Message == nil {
		return nil, nil
	}

	var msg Message
	if err := json.Unmarshal(entry.Message, &msg); err != nil {
		return nil, err
	}

	text := extractText(msg.Content)
	text = systemReminderRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if len(text) < minTurnLen {
		return nil, nil
	}
	// tool results echoed as user messages
	if strings.HasPrefix(text, "{") {
		return nil, nil
	}

	return &Turn{Type: entry.Type, Text: text}, nil
}

// extractText handles the polymorphic content field.
// It may be a plain string or an array of ContentItem.
func extractText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []ContentItem
	if err := json.Unmarshal(raw, &items); err == nil {
		var texts []string
		for _, item := range items {
			if item.Type == "text" && item.Text != "" {
				texts = append(texts, item.Text)
			}
		}
		return strings.Join(texts, "\n")
	}

	return ""
}

// LastExchange returns the last user turn and every assistant turn after it.
// Assistant turns before the first user turn are ignored.
func LastExchange(turns []Turn) Exchange {
	last := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Type == "user" {
			last = i
			break
		}
	}
	if last < 0 {
		return Exchange{}
	}

	var replies []string
	for _, t := range turns[last+1:] {
		if t.Type == "assistant" {
			replies = append(replies, t.Text)
		}
	}
	return Exchange{User: turns[last].Text, Assistant: strings.Join(replies, "\n\n")}
}

// LastUserMessage returns the text of the final user turn, or "".
func LastUserMessage(turns []Turn) string {
	return LastExchange(turns).User
}
