package hooks

import (
	"encoding/json"
	"io"
)

func handleStart(client *Client, stdout io.Writer) {
	data, err := client.Get("/api/context")
	if err != nil {
		logError("start", err)
		writeOutput(stdout, "SessionStart", "")
		return
	}

	var resp struct {
		Context string `json:"context"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		logError("start", err)
		writeOutput(stdout, "SessionStart", "")
		return
	}

	writeOutput(stdout, "SessionStart", resp.Context)
}
