package engine

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/llm"
	"github.com/lazypower/sable/internal/store"
	"github.com/lazypower/sable/internal/transcript"
)

const (
	conversationEvent   = "Emotionally significant conversation exchange"
	conversationRole    = "meaningful interaction"
	conversationSummary = 500
	conversationTrigger = 0.8

	userEmotionFloor      = 0.4
	assistantEmotionFloor = 0.3
)

// resonance maps a user emotion to the emotion it evokes and the factor
// applied to its intensity.
var resonance = map[affect.Kind]struct {
	kind   affect.Kind
	factor float64
}{
	affect.Fear:        {affect.Compassion, 0.6},
	affect.Sadness:     {affect.Compassion, 0.6},
	affect.Anger:       {affect.Curiosity, 0.5},
	affect.Frustration: {affect.Curiosity, 0.5},
	affect.Joy:         {affect.Joy, 0.7},
	affect.Enthusiasm:  {affect.Joy, 0.7},
	affect.Curiosity:   {affect.Curiosity, 0.8},
}

// AnalysisReport is the outcome of AnalyzeExchange.
type AnalysisReport struct {
	User       *llm.Analysis    `json:"user"`
	Assistant  *llm.Analysis    `json:"assistant"`
	Candidates affect.Impact    `json:"candidates"`
	Emotions   []affect.Emotion `json:"emotions_triggered"`
	Event      *store.Event     `json:"event,omitempty"`
	Memory     *store.Memory    `json:"memory,omitempty"`
	Fallbacks  []string         `json:"fallbacks,omitempty"`
	State      *State           `json:"state"`
}

// AnalyzeExchange classifies one user/assistant exchange and folds the
// result into the state. Classifier failures fall back to a neutral reading.
func (m *Manager) AnalyzeExchange(ctx context.Context, ex transcript.Exchange) (*AnalysisReport, error) {
	if ex.Empty() {
		return nil, invalid("exchange", "user and assistant text are both empty")
	}

	rep := &AnalysisReport{}
	rep.User = m.classify(ctx, "user", ex.User, rep)
	rep.Assistant = m.classify(ctx, "assistant", ex.Assistant, rep)
	rep.Candidates = candidates(rep.User, rep.Assistant)

	err := m.update(ctx, func(c *store.Conn, now time.Time) error {
		s, err := m.load(ctx, c, now)
		if err != nil {
			return err
		}
		s.body.ApplyChanges(conversationImpact(rep.Assistant))

		for _, k := range rep.Candidates.Kinds() {
			e, err := m.addEmotion(ctx, c, s, k, rep.Candidates[k], "conversation")
			if err != nil {
				return err
			}
			rep.Emotions = append(rep.Emotions, *e)
		}

		if rep.Candidates.Total() > conversationTrigger {
			rep.Event, rep.Memory, err = m.recordEvent(ctx, c, s, eventRecord{
				description:   conversationEvent,
				context:       transcript.Summarize(ex, conversationSummary),
				impact:        rep.Candidates,
				narrativeRole: conversationRole,
				relevance:     defaultIdentityRelevance,
				encode:        true,
			})
			if err != nil {
				return err
			}
		}

		if err := s.save(ctx, c); err != nil {
			return err
		}
		rep.State, err = s.state(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// classify runs the classifier on one side of the exchange. It never fails:
// errors are logged, counted and replaced with a neutral reading.
func (m *Manager) classify(ctx context.Context, side, text string, rep *AnalysisReport) *llm.Analysis {
	if m.classifier == nil {
		return llm.Neutral()
	}
	text = transcript.Condense(text, m.cfg.Classifier.MaxChars)
	a, err := m.classifier.Classify(ctx, text)
	if err == nil && a != nil {
		if a.Emotions == nil {
			a.Emotions = affect.Impact{}
		}
		return a
	}
	if err == nil {
		err = llm.ErrUnparsable
	}
	reason := llm.FallbackReason(err)
	log.Warn().Err(err).Str("side", side).Str("reason", reason).Msg("classifier failed, using neutral analysis")
	m.obs.ClassifierFallback(reason)
	rep.Fallbacks = append(rep.Fallbacks, side+": "+reason)
	return llm.Neutral()
}

// candidates merges resonance with the user's strong emotions and the
// assistant's own emotions, keeping the maximum per kind.
func candidates(user, assistant *llm.Analysis) affect.Impact {
	out := affect.Impact{}
	merge := func(k affect.Kind, v float64) {
		if v = affect.ClampUnit(v); v > out[k] {
			out[k] = v
		}
	}
	for k, v := range user.Emotions {
		r, ok := resonance[k]
		if !ok || v <= userEmotionFloor {
			continue
		}
		merge(r.kind, v*r.factor)
	}
	for k, v := range assistant.Emotions {
		if v > assistantEmotionFloor {
			merge(k, v)
		}
	}
	return out
}

// conversationImpact is the body response to the assistant's own reading of
// the exchange.
func conversationImpact(a *llm.Analysis) affect.Changes {
	c := affect.Changes{}
	if a.Arousal > 0.5 {
		c[affect.ParamArousal] += (a.Arousal - 0.5) * 0.3
	}
	c[affect.ParamValence] += a.Valence * 0.2
	if a.Valence > 0 {
		c[affect.ParamEnergy] += a.Valence * 0.1
	} else {
		c[affect.ParamEnergy] += a.Valence * 0.05
	}
	if t := a.Total(); t > 0.5 {
		c[affect.ParamStress] += math.Min(1, (t-0.5)*0.2)
	}
	c[affect.ParamEnergy] -= 0.05
	return c
}
