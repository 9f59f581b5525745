package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/store"
)

// State is the decayed affective state at one instant.
type State struct {
	Timestamp  time.Time              `json:"timestamp"`
	Body       affect.Body            `json:"body"`
	Background affect.BackgroundLabel `json:"background_emotion"`
	Pressure   float64                `json:"homeostatic_pressure"`
	Valence    float64                `json:"valence"`
	Arousal    float64                `json:"arousal"`
	Emotions   []affect.Emotion       `json:"active_emotions"`
	Feelings   []string               `json:"feelings"`
	Traits     []store.Trait          `json:"identity_traits"`
}

// feelingCount is how many active emotions State verbalizes.
const feelingCount = 3

// snapshot is the working copy of the state inside one transaction.
type snapshot struct {
	now      time.Time
	decay    store.DecayConfig
	body     affect.Body
	emotions []affect.Emotion
}

// load reads the latest body and the active emotions and advances both to now.
// Decayed emotion rows are written back; the body is persisted by save.
func (m *Manager) load(ctx context.Context, c *store.Conn, now time.Time) (*snapshot, error) {
	dc, err := c.LoadDecayConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load decay config: %w", err)
	}
	s := &snapshot{now: now, decay: dc}

	latest, err := c.LatestBody(ctx)
	if err != nil {
		return nil, fmt.Errorf("load body: %w", err)
	}
	if latest == nil {
		s.body = affect.NewBody()
	} else {
		s.body = latest.Body
		s.body.Decay(elapsedSince(latest.Timestamp, now), dc.Body)
	}

	active, err := c.ActiveEmotions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load emotions: %w", err)
	}
	for i := range active {
		e := &active[i]
		if !e.Decay(elapsedSince(e.UpdatedAt, now), dc.Emotions) {
			continue
		}
		e.UpdatedAt = now
		if err := c.UpdateEmotion(ctx, *e); err != nil {
			return nil, fmt.Errorf("decay emotion %d: %w", e.ID, err)
		}
	}
	s.emotions = affect.Active(active)
	return s, nil
}

// save persists the body snapshot at s.now.
func (s *snapshot) save(ctx context.Context, c *store.Conn) error {
	s.body.Clamp()
	if _, err := c.SaveBody(ctx, s.now, s.body); err != nil {
		return fmt.Errorf("save body: %w", err)
	}
	return nil
}

func (s *snapshot) state(ctx context.Context, c *store.Conn) (*State, error) {
	traits, err := c.Traits(ctx)
	if err != nil {
		return nil, fmt.Errorf("load traits: %w", err)
	}
	emotions := affect.Active(s.emotions)
	valence, arousal := affect.Aggregate(emotions, s.body)
	return &State{
		Timestamp:  s.now,
		Body:       s.body,
		Background: s.body.BackgroundEmotion(),
		Pressure:   s.body.HomeostaticPressure(),
		Valence:    valence,
		Arousal:    arousal,
		Emotions:   emotions,
		Feelings:   affect.Feelings(emotions, feelingCount),
		Traits:     traits,
	}, nil
}

// elapsedSince is now-t, clamped at zero so a clock moving backwards never
// applies decay.
func elapsedSince(t, now time.Time) time.Duration {
	d := now.Sub(t)
	if d < 0 {
		log.Debug().Time("stored", t).Time("now", now).Msg("clock moved backwards, skipping decay")
		return 0
	}
	return d
}

// CurrentState decays the stored state to now, persists it and returns it.
func (m *Manager) CurrentState(ctx context.Context) (*State, error) {
	var st *State
	err := m.update(ctx, func(c *store.Conn, now time.Time) error {
		s, err := m.load(ctx, c, now)
		if err != nil {
			return err
		}
		if err := s.save(ctx, c); err != nil {
			return err
		}
		st, err = s.state(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ApplyBodyChanges adds deltas to named body parameters and clamps the result.
func (m *Manager) ApplyBodyChanges(ctx context.Context, changes map[string]float64) (*State, error) {
	delta := make(affect.Changes, len(changes))
	for name, v := range changes {
		p, ok := affect.ParseParam(name)
		if !ok {
			return nil, invalid("body_changes", "unknown body parameter %q", name)
		}
		if err := finite("body_changes."+name, v); err != nil {
			return nil, err
		}
		delta[p] += v
	}

	var st *State
	err := m.update(ctx, func(c *store.Conn, now time.Time) error {
		s, err := m.load(ctx, c, now)
		if err != nil {
			return err
		}
		s.body.ApplyChanges(delta)
		if err := s.save(ctx, c); err != nil {
			return err
		}
		st, err = s.state(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// BodyHistory returns the newest body snapshots without decaying anything.
func (m *Manager) BodyHistory(ctx context.Context, limit int) ([]store.BodySnapshot, error) {
	if limit < 0 {
		return nil, invalid("limit", "cannot be negative")
	}
	if limit == 0 {
		limit = 20
	}
	return m.db.Conn().BodyHistory(ctx, limit)
}

// SetHalfLife overrides the decay half-life of a body parameter or an emotion
// kind, persisted in decay_config.
func (m *Manager) SetHalfLife(ctx context.Context, name string, halfLife time.Duration) error {
	if halfLife <= 0 {
		return invalid("half_life", "must be positive")
	}
	return m.update(ctx, func(c *store.Conn, _ time.Time) error {
		if p, ok := affect.ParseParam(name); ok {
			dc, err := c.LoadDecayConfig(ctx)
			if err != nil {
				return err
			}
			h := dc.Body[p]
			h.HalfLife = halfLife
			return c.SetBodyDecay(ctx, p, h)
		}
		k, err := parseKind("name", name)
		if err != nil {
			return err
		}
		return c.SetEmotionHalfLife(ctx, k, halfLife)
	})
}
