package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/store"
)

// defaultIdentityRelevance applies when an event does not state one.
const defaultIdentityRelevance = 0.5

// EventInput describes an event to record.
type EventInput struct {
	Description       string             `json:"description"`
	Context           string             `json:"context,omitempty"`
	Impact            map[string]float64 `json:"emotional_impact"`
	EncodeAsMemory    *bool              `json:"encode_as_memory,omitempty"`
	NarrativeRole     string             `json:"narrative_role,omitempty"`
	IdentityRelevance *float64           `json:"identity_relevance,omitempty"`
}

func (in EventInput) encode() bool {
	return in.EncodeAsMemory == nil || *in.EncodeAsMemory
}

// EventResult is the outcome of AddEvent. Memory is nil when the event was
// not significant enough to encode.
type EventResult struct {
	Event    *store.Event     `json:"event"`
	Memory   *store.Memory    `json:"memory,omitempty"`
	Emotions []affect.Emotion `json:"emotions_triggered"`
	State    *State           `json:"state"`
}

// AddEvent records an event, encodes it as a memory when its total impact is
// significant, and triggers one emotion instance per impact entry.
func (m *Manager) AddEvent(ctx context.Context, in EventInput) (*EventResult, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return nil, invalid("description", "is required")
	}
	impact, err := validateImpact(in.Impact)
	if err != nil {
		return nil, err
	}
	relevance := defaultIdentityRelevance
	if in.IdentityRelevance != nil {
		if err := unit("identity_relevance", *in.IdentityRelevance); err != nil {
			return nil, err
		}
		relevance = *in.IdentityRelevance
	}

	res := &EventResult{}
	err = m.update(ctx, func(c *store.Conn, now time.Time) error {
		s, err := m.load(ctx, c, now)
		if err != nil {
			return err
		}
		res.Event, res.Memory, err = m.recordEvent(ctx, c, s, eventRecord{
			description:   in.Description,
			context:       in.Context,
			impact:        impact,
			narrativeRole: in.NarrativeRole,
			relevance:     relevance,
			encode:        in.encode(),
		})
		if err != nil {
			return err
		}
		for _, k := range impact.Kinds() {
			if impact[k] <= 0 {
				continue
			}
			e, err := m.addEmotion(ctx, c, s, k, impact[k], in.Description)
			if err != nil {
				return err
			}
			res.Emotions = append(res.Emotions, *e)
		}
		if err := s.save(ctx, c); err != nil {
			return err
		}
		res.State, err = s.state(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type eventRecord struct {
	description   string
	context       string
	impact        affect.Impact
	narrativeRole string
	relevance     float64
	encode        bool
}

// recordEvent inserts the event and, when significant, its memory. A new
// memory triggers a marker rescan in the same transaction.
func (m *Manager) recordEvent(ctx context.Context, c *store.Conn, s *snapshot, r eventRecord) (*store.Event, *store.Memory, error) {
	ev := &store.Event{
		Description: r.description,
		Context:     r.context,
		Impact:      r.impact,
		CreatedAt:   s.now,
	}
	if err := c.InsertEvent(ctx, ev); err != nil {
		return nil, nil, err
	}
	if !r.encode || !m.policy.Significant(r.impact) {
		return ev, nil, nil
	}

	mem := &store.Memory{
		EventID:            ev.ID,
		Description:        ev.Description,
		Context:            ev.Context,
		Impact:             ev.Impact,
		OccurredAt:         ev.CreatedAt,
		Salience:           m.policy.Salience(r.impact),
		Consolidation:      affect.InitialConsolidation,
		LastAccessed:       s.now,
		LastDecayed:        s.now,
		IdentityRelevance:  r.relevance,
		NarrativeRole:      r.narrativeRole,
		AssociatedEmotions: associated(r.impact),
		CreatedAt:          s.now,
	}
	if err := c.InsertMemory(ctx, mem); err != nil {
		return nil, nil, err
	}
	m.obs.MemoryEncoded()
	log.Info().Int64("memory", mem.ID).Float64("salience", mem.Salience).Msg("memory encoded")

	if _, err := m.scanMarkers(ctx, c, s.now); err != nil {
		return nil, nil, fmt.Errorf("rescan markers: %w", err)
	}
	return ev, mem, nil
}

// associated lists the kinds with positive intensity, in name order.
func associated(im affect.Impact) []affect.Kind {
	var out []affect.Kind
	for _, k := range im.Kinds() {
		if im[k] > 0 {
			out = append(out, k)
		}
	}
	return out
}
