package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/store"
)

// MarkerSignal is a gut feeling: the strongest marker matching a situation.
type MarkerSignal struct {
	Cue      string                  `json:"cue"`
	Valence  float64                 `json:"valence"`
	Strength float64                 `json:"strength"`
	Profile  map[affect.Kind]float64 `json:"emotion_profile"`
	Marker   store.Marker            `json:"marker"`
}

// ScanMarkers re-derives markers from the current memories.
func (m *Manager) ScanMarkers(ctx context.Context) ([]store.Marker, error) {
	var out []store.Marker
	err := m.update(ctx, func(c *store.Conn, now time.Time) error {
		var err error
		out, err = m.scanMarkers(ctx, c, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type cueStats struct {
	count   int
	weight  float64
	profile map[affect.Kind]float64
}

// scanMarkers accumulates, per cue, the salience-weighted impact of every
// memory mentioning it, and upserts the cues that recur often enough.
func (m *Manager) scanMarkers(ctx context.Context, c *store.Conn, now time.Time) ([]store.Marker, error) {
	cfg := m.cfg.Markers
	mems, err := c.QueryMemories(ctx, store.MemoryFilter{MinSalience: cfg.MinSalience})
	if err != nil {
		return nil, err
	}

	stats := map[string]*cueStats{}
	for _, mem := range mems {
		s := mem.Salience
		if s < cfg.MinSalience {
			continue
		}
		for _, cue := range affect.Cues(mem.Description + " " + mem.Context) {
			st := stats[cue]
			if st == nil {
				st = &cueStats{profile: map[affect.Kind]float64{}}
				stats[cue] = st
			}
			st.count++
			st.weight += s
			for k, v := range mem.Impact {
				if v > 0 {
					st.profile[k] += s * v
				}
			}
		}
	}

	cues := make([]string, 0, len(stats))
	for cue, st := range stats {
		if st.count >= cfg.MinOccurrences && len(st.profile) > 0 && st.weight > 0 {
			cues = append(cues, cue)
		}
	}
	sort.Strings(cues)

	out := make([]store.Marker, 0, len(cues))
	for _, cue := range cues {
		st := stats[cue]
		mk := &store.Marker{
			CuePattern:   cue,
			Profile:      make(map[affect.Kind]float64, len(st.profile)),
			Strength:     markerStrength(st.weight, cfg.Saturation),
			SupportCount: st.count,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		for k, v := range st.profile {
			mk.Profile[k] = v / st.weight
		}
		mk.Valence = profileValence(mk.Profile)
		if err := c.UpsertMarker(ctx, mk); err != nil {
			return nil, err
		}
		out = append(out, *mk)
	}
	log.Debug().Int("memories", len(mems)).Int("markers", len(out)).Msg("markers scanned")
	return out, nil
}

func markerStrength(weight, saturation float64) float64 {
	if saturation <= 0 {
		return affect.ClampUnit(weight)
	}
	return math.Min(1, weight/saturation)
}

// profileValence is the profile-weighted mean valence of its kinds.
func profileValence(profile map[affect.Kind]float64) float64 {
	var sum, weight float64
	for k, v := range profile {
		spec, ok := affect.Lookup(k)
		if !ok {
			continue
		}
		sum += v * spec.Valence
		weight += v
	}
	if weight == 0 {
		return 0
	}
	return affect.ClampSigned(sum / weight)
}

// GutFeeling returns the strongest marker matching situation with strength at
// least minStrength, or nil. A non-positive minStrength uses the configured
// default. It never writes.
func (m *Manager) GutFeeling(ctx context.Context, situation string, minStrength float64) (*MarkerSignal, error) {
	if strings.TrimSpace(situation) == "" {
		return nil, invalid("situation", "is required")
	}
	if err := finite("min_strength", minStrength); err != nil {
		return nil, err
	}
	if minStrength <= 0 {
		minStrength = m.cfg.Markers.MinStrength
	}

	markers, err := m.db.Conn().ListMarkers(ctx, minStrength)
	if err != nil {
		return nil, err
	}
	lowered := strings.ToLower(situation)
	tokens := map[string]bool{}
	for _, t := range affect.Cues(situation) {
		tokens[t] = true
	}
	for _, mk := range markers {
		if tokens[mk.CuePattern] || strings.Contains(lowered, mk.CuePattern) {
			return &MarkerSignal{
				Cue:      mk.CuePattern,
				Valence:  mk.Valence,
				Strength: mk.Strength,
				Profile:  mk.Profile,
				Marker:   mk,
			}, nil
		}
	}
	return nil, nil
}

// Markers lists markers with strength at least minStrength, strongest first.
func (m *Manager) Markers(ctx context.Context, minStrength float64) ([]store.Marker, error) {
	if err := finite("min_strength", minStrength); err != nil {
		return nil, err
	}
	return m.db.Conn().ListMarkers(ctx, minStrength)
}

// ReinforceMarker adjusts a marker by how well its valence predicted an
// observed outcome valence in [-1,1]. The adjustment persists across rescans.
func (m *Manager) ReinforceMarker(ctx context.Context, cue string, outcome float64) (*store.Marker, error) {
	cue = strings.ToLower(strings.TrimSpace(cue))
	if cue == "" {
		return nil, invalid("cue", "is required")
	}
	if err := finite("outcome_valence", outcome); err != nil {
		return nil, err
	}
	if outcome < -1 || outcome > 1 {
		return nil, invalid("outcome_valence", "must be between -1 and 1, got %g", outcome)
	}

	var out *store.Marker
	err := m.update(ctx, func(c *store.Conn, now time.Time) error {
		mk, err := c.GetMarkerByCue(ctx, cue)
		if err != nil {
			return err
		}
		if mk == nil {
			return fmt.Errorf("marker %q: %w", cue, ErrNotFound)
		}
		next := reinforce(mk.Strength, mk.Valence, outcome)
		mk.ReinforcementDelta += next - mk.Strength
		mk.Strength = next
		if err := c.RecordReinforcement(ctx, mk.ID, mk.Strength, now); err != nil {
			return err
		}
		mk.ReinforcementCount++
		mk.LastActivated = &now
		mk.UpdatedAt = now
		out = mk
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reinforce strengthens a marker whose prediction agreed with the outcome and
// weakens one that did not, never below 0.1.
func reinforce(strength, valence, outcome float64) float64 {
	agreement := 1 - math.Abs(valence-outcome)/2
	if agreement > 0.5 {
		return math.Min(1, strength+0.05)
	}
	return math.Max(0.1, strength-0.1)
}
