package engine

import (
	"context"
	"strings"
	"time"

	"github.com/lazypower/sable/internal/store"
)

// SetTrait records the strength of a named identity trait.
func (m *Manager) SetTrait(ctx context.Context, name string, strength float64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("trait", "name is required")
	}
	if err := unit("strength", strength); err != nil {
		return err
	}
	return m.update(ctx, func(c *store.Conn, now time.Time) error {
		return c.SetTrait(ctx, name, strength, now)
	})
}

// Traits lists identity traits by name.
func (m *Manager) Traits(ctx context.Context) ([]store.Trait, error) {
	return m.db.Conn().Traits(ctx)
}
