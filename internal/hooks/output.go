package hooks

import (
	"encoding/json"
	"io"
)

// HookOutput is the JSON structure Claude Code expects on stdout from hooks
// that inject context.
type HookOutput struct {
	HookSpecificOutput struct {
		HookEventName     string `json:"hookEventName"`
		AdditionalContext string `json:"additionalContext"`
	} `json:"hookSpecificOutput"`
}

func writeOutput(w io.Writer, eventName, context string) error {
	out := HookOutput{}
	out.HookSpecificOutput.HookEventName = eventName
	out.HookSpecificOutput.AdditionalContext = context
	return json.NewEncoder(w).Encode(out)
}
