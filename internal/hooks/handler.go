// Package hooks implements the Claude Code hook handlers. Each handler talks
// to a running sable server and never fails the host: problems are logged to
// stderr and the process still exits 0.
package hooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// Events lists the hook events Handle understands.
var Events = []string{"start", "submit", "tool", "stop", "end"}

// Handle reads HookInput from stdin, dispatches on event and writes any hook
// output to stdout. Only start and submit produce output.
func Handle(event string, stdin io.Reader, stdout io.Writer) {
	var input HookInput
	if err := json.NewDecoder(stdin).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		// Stdin may be empty for some events; degrade gracefully
		if event == "start" {
			writeOutput(stdout, "SessionStart", "")
			return
		}
		logError(event, fmt.Errorf("decode stdin: %w", err))
		return
	}

	client := NewClient()

	if !client.Healthy() {
		log.Debug().Str("event", event).Str("url", client.serverURL).Msg("server unreachable")
		if event == "start" {
			writeOutput(stdout, "SessionStart", "")
		}
		return
	}

	var err error
	switch event {
	case "start":
		handleStart(client, stdout)
	case "submit":
		err = handleSubmit(client, &input, stdout)
	case "tool":
		err = handleTool(client, &input)
	case "stop":
		err = handleStop(client, &input)
	case "end":
		err = handleEnd(client)
	default:
		err = fmt.Errorf("unknown hook event: %s", event)
	}
	if err != nil {
		logError(event, err)
	}
}

func logError(event string, err error) {
	log.Warn().Err(err).Str("event", event).Msg("sable hook")
}
