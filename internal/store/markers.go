package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// Marker is a learned association between a cue and an emotion profile.
type Marker struct {
	ID                 int64                   `json:"id"`
	CuePattern         string                  `json:"cue_pattern"`
	Profile            map[affect.Kind]float64 `json:"emotion_profile"`
	Valence            float64                 `json:"valence"`
	Strength           float64                 `json:"strength"`
	SupportCount       int                     `json:"support_count"`
	ReinforcementCount int                     `json:"reinforcement_count"`
	ReinforcementDelta float64                 `json:"reinforcement_delta"`
	LastActivated      *time.Time              `json:"last_activated,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

const markerColumns = `id, cue_pattern, emotion_profile, valence, strength, support_count,
	reinforcement_count, reinforcement_delta, last_activated, created_at, updated_at`

// UpsertMarker inserts a marker or replaces the profile, valence, strength and
// support of the marker with the same cue. A reinforced marker keeps its
// accumulated reinforcement offset on top of the new strength, clamped to
// [0.1, 1]. m.Strength is updated to the stored value.
func (c *Conn) UpsertMarker(ctx context.Context, m *Marker) error {
	profile, err := json.Marshal(profileOrEmpty(m.Profile))
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	var created int64
	err = c.q.QueryRowContext(ctx, `
		INSERT INTO somatic_markers (cue_pattern, emotion_profile, valence, strength, support_count,
			reinforcement_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(cue_pattern) DO UPDATE SET
			emotion_profile = excluded.emotion_profile,
			valence         = excluded.valence,
			strength        = CASE WHEN reinforcement_count > 0
				THEN MIN(1.0, MAX(0.1, excluded.strength + reinforcement_delta))
				ELSE excluded.strength END,
			support_count   = excluded.support_count,
			updated_at      = excluded.updated_at
		RETURNING id, strength, reinforcement_count, reinforcement_delta, created_at`,
		m.CuePattern, string(profile), affect.ClampSigned(m.Valence), affect.ClampUnit(m.Strength),
		m.SupportCount, toMillis(m.UpdatedAt), toMillis(m.UpdatedAt),
	).Scan(&m.ID, &m.Strength, &m.ReinforcementCount, &m.ReinforcementDelta, &created)
	if err != nil {
		return fmt.Errorf("upsert marker %q: %w", m.CuePattern, err)
	}
	m.CreatedAt = fromMillis(created)
	return nil
}

// ListMarkers returns markers with strength >= minStrength, strongest first.
func (c *Conn) ListMarkers(ctx context.Context, minStrength float64) ([]Marker, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT `+markerColumns+` FROM somatic_markers WHERE strength >= ? ORDER BY strength DESC, id ASC`,
		minStrength)
	if err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	defer rows.Close()

	var out []Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// GetMarkerByCue returns the marker for cue, or nil, nil if none.
func (c *Conn) GetMarkerByCue(ctx context.Context, cue string) (*Marker, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+markerColumns+` FROM somatic_markers WHERE cue_pattern = ?`, cue)
	m, err := scanMarker(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get marker %q: %w", cue, err)
	}
	return m, nil
}

// RecordReinforcement stores the outcome of a reinforcement and folds the
// change in strength into the marker's reinforcement offset.
func (c *Conn) RecordReinforcement(ctx context.Context, id int64, strength float64, at time.Time) error {
	_, err := c.q.ExecContext(ctx, `
		UPDATE somatic_markers
		SET reinforcement_delta = reinforcement_delta + (?1 - strength),
			strength = ?1,
			reinforcement_count = reinforcement_count + 1,
			last_activated = ?2, updated_at = ?2
		WHERE id = ?3`,
		affect.ClampUnit(strength), toMillis(at), id,
	)
	if err != nil {
		return fmt.Errorf("reinforce marker %d: %w", id, err)
	}
	return nil
}

func scanMarker(s scanner) (*Marker, error) {
	var m Marker
	var profile string
	var activated sql.NullInt64
	var created, updated int64
	if err := s.Scan(&m.ID, &m.CuePattern, &profile, &m.Valence, &m.Strength, &m.SupportCount,
		&m.ReinforcementCount, &m.ReinforcementDelta, &activated, &created, &updated); err != nil {
		return nil, err
	}
	m.LastActivated = fromNullMillis(activated)
	m.CreatedAt = fromMillis(created)
	m.UpdatedAt = fromMillis(updated)
	m.Profile = map[affect.Kind]float64{}
	if profile != "" {
		if err := json.Unmarshal([]byte(profile), &m.Profile); err != nil {
			return nil, fmt.Errorf("unmarshal profile: %w", err)
		}
	}
	return &m, nil
}

func profileOrEmpty(p map[affect.Kind]float64) map[affect.Kind]float64 {
	if p == nil {
		return map[affect.Kind]float64{}
	}
	return p
}
