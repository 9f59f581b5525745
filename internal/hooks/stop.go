package hooks

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/transcript"
)

// handleStop sends the turn that just finished for emotional analysis. The
// server answers 202 and classifies in the background.
func handleStop(client *Client, input *HookInput) error {
	if input.StopHookActive {
		return nil
	}

	ex := transcript.Exchange{Assistant: input.LastAssistantMessage}
	if input.TranscriptPath != "" {
		turns, err := transcript.ParseFile(input.TranscriptPath)
		if err != nil {
			log.Debug().Err(err).Str("path", input.TranscriptPath).Msg("read transcript")
		} else {
			ex.User = transcript.LastUserMessage(turns)
			if ex.Assistant == "" {
				ex.Assistant = transcript.LastExchange(turns).Assistant
			}
		}
	}
	if ex.Empty() || isInternalPrompt(ex.User) {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"user":      ex.User,
		"assistant": ex.Assistant,
	})
	if err != nil {
		return err
	}

	_, err = client.Post("/api/analyze", body)
	return err
}
