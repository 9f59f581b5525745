package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// emotionParamPrefix marks decay_config rows that override an emotion half-life.
const emotionParamPrefix = "emotion:"

// DecayConfig is the resolved content of decay_config layered over defaults.
type DecayConfig struct {
	Body     affect.Homeostasis
	Emotions affect.HalfLives
}

// LoadDecayConfig reads decay_config. Rows naming body parameters override
// the homeostat; rows named emotion:<kind> override that kind's half-life.
// Unrecognized rows are ignored.
func (c *Conn) LoadDecayConfig(ctx context.Context) (DecayConfig, error) {
	cfg := DecayConfig{
		Body:     affect.DefaultHomeostasis(),
		Emotions: affect.DefaultHalfLives(),
	}

	rows, err := c.q.QueryContext(ctx, `SELECT param, baseline, half_life FROM decay_config`)
	if err != nil {
		return cfg, fmt.Errorf("load decay config: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var param string
		var baseline, halfLife float64
		if err := rows.Scan(&param, &baseline, &halfLife); err != nil {
			return cfg, fmt.Errorf("scan decay config: %w", err)
		}
		d := time.Duration(halfLife * float64(time.Second))
		if name, ok := strings.CutPrefix(param, emotionParamPrefix); ok {
			if k, ok := affect.ParseKind(name); ok {
				cfg.Emotions[k] = d
			}
			continue
		}
		if p, ok := affect.ParseParam(param); ok {
			cfg.Body[p] = affect.Homeostat{Baseline: baseline, HalfLife: d}
		}
	}
	return cfg, rows.Err()
}

// SetBodyDecay overrides a body parameter's baseline and half-life.
func (c *Conn) SetBodyDecay(ctx context.Context, p affect.Param, h affect.Homeostat) error {
	return c.setDecay(ctx, string(p), h.Baseline, h.HalfLife)
}

// SetEmotionHalfLife overrides an emotion kind's nominal half-life.
func (c *Conn) SetEmotionHalfLife(ctx context.Context, k affect.Kind, halfLife time.Duration) error {
	return c.setDecay(ctx, emotionParamPrefix+string(k), 0, halfLife)
}

func (c *Conn) setDecay(ctx context.Context, param string, baseline float64, halfLife time.Duration) error {
	if halfLife <= 0 {
		return fmt.Errorf("decay config %q: half-life must be positive", param)
	}
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO decay_config (param, baseline, half_life) VALUES (?, ?, ?)
		ON CONFLICT(param) DO UPDATE SET baseline = excluded.baseline, half_life = excluded.half_life`,
		param, baseline, halfLife.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("set decay config %q: %w", param, err)
	}
	return nil
}
