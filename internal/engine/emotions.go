package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/store"
)

// AddEmotion decays the state to now, then records a new instance of kind and
// applies its body response scaled by emotional reactivity.
func (m *Manager) AddEmotion(ctx context.Context, kind string, intensity float64, cause string) (*State, *affect.Emotion, error) {
	k, err := parseKind("type", kind)
	if err != nil {
		return nil, nil, err
	}
	if err := finite("intensity", intensity); err != nil {
		return nil, nil, err
	}

	var (
		st *State
		em *affect.Emotion
	)
	err = m.update(ctx, func(c *store.Conn, now time.Time) error {
		s, err := m.load(ctx, c, now)
		if err != nil {
			return err
		}
		em, err = m.addEmotion(ctx, c, s, k, intensity, cause)
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
		return nil, nil, err
	}
	return st, em, nil
}

// addEmotion inserts one instance and applies its body changes to s.
// Every call creates an independent instance; same-kind instances coexist.
func (m *Manager) addEmotion(ctx context.Context, c *store.Conn, s *snapshot, k affect.Kind, intensity float64, cause string) (*affect.Emotion, error) {
	e := affect.NewEmotion(k, intensity, cause, s.now)
	if err := c.InsertEmotion(ctx, &e); err != nil {
		return nil, fmt.Errorf("insert emotion: %w", err)
	}

	reactivity, err := m.reactivity(ctx, c)
	if err != nil {
		return nil, err
	}
	s.body.ApplyChanges(affect.BodyChanges(k, e.Intensity, reactivity))
	s.emotions = append(s.emotions, e)

	m.obs.EmotionAdded(k)
	log.Debug().Str("type", string(k)).Float64("intensity", e.Intensity).Msg("emotion added")
	return &e, nil
}

func (m *Manager) reactivity(ctx context.Context, c *store.Conn) (float64, error) {
	strength, ok, err := c.TraitStrength(ctx, affect.ReactivityTrait)
	if err != nil {
		return 0, fmt.Errorf("load reactivity: %w", err)
	}
	if !ok {
		strength = 0.5
	}
	return affect.ReactivityMultiplier(strength), nil
}

// RecentEmotions lists the newest instances, decayed or not, without mutating.
func (m *Manager) RecentEmotions(ctx context.Context, limit int) ([]affect.Emotion, error) {
	if limit < 0 {
		return nil, invalid("limit", "cannot be negative")
	}
	if limit == 0 {
		limit = 20
	}
	return m.db.Conn().RecentEmotions(ctx, limit)
}
