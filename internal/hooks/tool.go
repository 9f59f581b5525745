package hooks

import (
	"encoding/json"
	"fmt"
)

// toolFailureIntensity is the frustration logged for a failed tool call.
const toolFailureIntensity = 0.3

func handleTool(client *Client, input *HookInput) error {
	if input.ShouldSkipTool() || !input.ToolFailed() {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"type":      "frustration",
		"intensity": toolFailureIntensity,
		"cause":     fmt.Sprintf("tool %s failed", input.ToolName),
	})
	if err != nil {
		return err
	}

	_, err = client.Post("/api/emotions", body)
	return err
}
