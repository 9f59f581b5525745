package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/lazypower/sable/internal/llm"
)

// isInternalPrompt returns true if the prompt came from sable's own model
// calls. A claude -p call spawns a session whose hooks fire back into us; the
// sentinel must lead the prompt so user text containing it still counts.
func isInternalPrompt(prompt string) bool {
	return strings.HasPrefix(prompt, llm.InternalSentinel)
}

type gutSignal struct {
	Cue      string             `json:"cue"`
	Valence  float64            `json:"valence"`
	Strength float64            `json:"strength"`
	Profile  map[string]float64 `json:"emotion_profile"`
}

func handleSubmit(client *Client, input *HookInput, stdout io.Writer) error {
	if isInternalPrompt(input.Prompt) || strings.TrimSpace(input.Prompt) == "" {
		return nil
	}

	data, err := client.Get("/api/markers/lookup?situation=" + url.QueryEscape(input.Prompt))
	if err != nil {
		return err
	}

	var resp struct {
		Matched bool       `json:"matched"`
		Signal  *gutSignal `json:"signal"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode marker lookup: %w", err)
	}
	if !resp.Matched || resp.Signal == nil {
		return nil
	}

	return writeOutput(stdout, "UserPromptSubmit", describeGut(resp.Signal))
}

// describeGut renders a gut feeling as a short first-person note.
func describeGut(sig *gutSignal) string {
	tone := "mixed"
	switch {
	case sig.Valence > 0:
		tone = "good"
	case sig.Valence < 0:
		tone = "uneasy"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Gut feeling: %q feels %s (valence %+.2f, strength %.2f).", sig.Cue, tone, sig.Valence, sig.Strength)

	kinds := make([]string, 0, len(sig.Profile))
	for k := range sig.Profile {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if sig.Profile[kinds[i]] != sig.Profile[kinds[j]] {
			return sig.Profile[kinds[i]] > sig.Profile[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	if len(kinds) > 2 {
		kinds = kinds[:2]
	}
	if len(kinds) > 0 {
		fmt.Fprintf(&b, " Past experience with it brought %s.", strings.Join(kinds, " and "))
	}
	return b.String()
}
