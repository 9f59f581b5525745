package hooks

import (
	"bytes"
	"encoding/json"
)

// HookInput represents the JSON that Claude Code sends on stdin to hook handlers.
// All fields are optional; different events populate different subsets.
type HookInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`

	// UserPromptSubmit
	Prompt string `json:"prompt,omitempty"`

	// PostToolUse
	ToolName     string          `json:"tool_name,omitempty"`
	ToolInput    json.RawMessage `json:"tool_input,omitempty"`
	ToolResponse json.RawMessage `json:"tool_response,omitempty"`

	// Stop
	StopHookActive       bool   `json:"stop_hook_active,omitempty"`
	LastAssistantMessage string `json:"last_assistant_message,omitempty"`

	// SessionEnd
	Reason string `json:"reason,omitempty"`
}

// skipTools are meta-tools whose outcome says nothing about how work went.
var skipTools = map[string]bool{
	"TodoRead":   true,
	"TodoWrite":  true,
	"Thinking":   true,
	"TaskList":   true,
	"TaskCreate": true,
	"TaskGet":    true,
	"TaskUpdate": true,
}

// ShouldSkipTool returns true if this tool's outcome should not affect state.
func (h *HookInput) ShouldSkipTool() bool {
	return skipTools[h.ToolName]
}

// ToolFailed reports whether the tool response describes a failure. Responses
// that are not JSON objects never count as failures.
func (h *HookInput) ToolFailed() bool {
	raw := bytes.TrimSpace(h.ToolResponse)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	var resp struct {
		IsError  bool            `json:"is_error"`
		Error    json.RawMessage `json:"error"`
		Success  *bool           `json:"success"`
		ExitCode *int            `json:"exit_code"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false
	}
	switch {
	case resp.IsError:
		return true
	case resp.Success != nil && !*resp.Success:
		return true
	case resp.ExitCode != nil && *resp.ExitCode != 0:
		return true
	}
	return hasError(resp.Error)
}

// hasError treats any non-empty, non-false error value as a failure.
func hasError(raw json.RawMessage) bool {
	v := string(bytes.TrimSpace(raw))
	switch v {
	case "", "null", "false", `""`, "{}":
		return false
	}
	return true
}
