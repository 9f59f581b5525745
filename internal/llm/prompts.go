package llm

import (
	"fmt"
	"strings"

	"github.com/lazypower/sable/internal/affect"
)

// InternalSentinel prefixes every prompt sable sends to a model. The submit
// hook skips prompts that start with it, so the classifier's own claude -p
// calls never feed back into the engine.
const InternalSentinel = "[sable-internal]"

// EmotionAnalysisPrompt asks the model for a JSON emotion analysis of text.
func EmotionAnalysisPrompt(text string) string {
	var catalog strings.Builder
	for _, c := range []affect.Category{affect.Primary, affect.Background, affect.Social, affect.Complex} {
		kinds := affect.KindsIn(c)
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		fmt.Fprintf(&catalog, "- %s%s: %s\n", strings.ToUpper(string(c[:1])), c[1:], strings.Join(names, ", "))
	}

	return fmt.Sprintf(`%s
You are an emotion analyst working in Damasio's framework. Analyze the text below for emotional content.

Available emotion types:
%s
Consider explicit emotion words, implicit tone, subtext, sarcasm and irony,
negation ("not afraid" vs "afraid") and intensity modifiers ("extremely" vs "a bit").

TEXT:
"""
%s
"""

Rules:
- Only use the emotion types listed above
- Intensities are between 0.0 and 1.0; omit emotions that are absent
- valence is -1.0 (very negative) to 1.0 (very positive)
- arousal is 0.0 (calm) to 1.0 (highly activated)
- Return ONLY a JSON object, no other text

Return a JSON object:
{"emotions": {"curiosity": 0.5}, "valence": 0.2, "arousal": 0.6, "reasoning": "brief explanation"}`,
		InternalSentinel, catalog.String(), text)
}
