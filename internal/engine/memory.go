package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/store"
)

// MemoryQuery filters a memory query. Zero values disable a filter.
type MemoryQuery struct {
	MinSalience          float64   `json:"min_salience,omitempty"`
	MinIdentityRelevance float64   `json:"min_identity_relevance,omitempty"`
	Emotion              string    `json:"emotion_type,omitempty"`
	Search               string    `json:"search,omitempty"`
	Since                time.Time `json:"since,omitempty"`
	Until                time.Time `json:"until,omitempty"`
	Sort                 string    `json:"sort_by,omitempty"`
	IncludeArchived      bool      `json:"include_archived,omitempty"`
	Limit                int       `json:"limit,omitempty"`
}

const defaultQueryLimit = 10

func (q MemoryQuery) filter() (store.MemoryFilter, error) {
	f := store.MemoryFilter{
		Search:          q.Search,
		Since:           q.Since,
		Until:           q.Until,
		IncludeArchived: q.IncludeArchived,
		Limit:           q.Limit,
	}
	if err := unit("min_salience", q.MinSalience); err != nil {
		return f, err
	}
	if err := unit("min_identity_relevance", q.MinIdentityRelevance); err != nil {
		return f, err
	}
	f.MinSalience = q.MinSalience
	f.MinIdentityRelevance = q.MinIdentityRelevance

	if q.Emotion != "" {
		k, err := parseKind("emotion_type", q.Emotion)
		if err != nil {
			return f, err
		}
		f.Emotion = k
	}
	sort, ok := store.ParseSortKey(q.Sort)
	if !ok {
		return f, invalid("sort_by", "unknown sort %q", q.Sort)
	}
	f.Sort = sort

	switch {
	case q.Limit < 0:
		return f, invalid("limit", "cannot be negative")
	case q.Limit == 0:
		f.Limit = defaultQueryLimit
	}
	if !q.Since.IsZero() && !q.Until.IsZero() && q.Until.Before(q.Since) {
		return f, invalid("until", "is before since")
	}
	return f, nil
}

// QueryMemories runs the decay pass, then returns matching memories. Each
// surfaced memory is strengthened exactly once.
func (m *Manager) QueryMemories(ctx context.Context, q MemoryQuery) ([]store.Memory, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	var out []store.Memory
	err = m.update(ctx, func(c *store.Conn, now time.Time) error {
		if _, err := m.decayPass(ctx, c, now); err != nil {
			return err
		}
		out, err = c.QueryMemories(ctx, f)
		if err != nil {
			return err
		}
		return m.strengthen(ctx, c, out, now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ContextOptions bounds the contextual memory set. Zero fields take defaults.
type ContextOptions struct {
	MaxTotal      int `json:"max_total"`
	RecentCount   int `json:"recent_count"`
	SalientCount  int `json:"salient_count"`
	DaysForRecent int `json:"days_for_recent"`
}

// DefaultContextOptions returns the standard contextual bounds.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{MaxTotal: 15, RecentCount: 10, SalientCount: 5, DaysForRecent: 7}
}

// maxDaysForRecent keeps the recent window well inside time.Duration range.
const maxDaysForRecent = 36500

func (o ContextOptions) resolve() (ContextOptions, error) {
	def := DefaultContextOptions()
	fields := []struct {
		name string
		v    *int
		def  int
	}{
		{"max_total", &o.MaxTotal, def.MaxTotal},
		{"recent_count", &o.RecentCount, def.RecentCount},
		{"salient_count", &o.SalientCount, def.SalientCount},
		{"days_for_recent", &o.DaysForRecent, def.DaysForRecent},
	}
	for _, f := range fields {
		if *f.v < 0 {
			return o, invalid(f.name, "cannot be negative")
		}
		if *f.v == 0 {
			*f.v = f.def
		}
	}
	if o.DaysForRecent > maxDaysForRecent {
		return o, invalid("days_for_recent", "cannot exceed %d", maxDaysForRecent)
	}
	return o, nil
}

// ContextualResult holds the two contextual buckets, each without duplicates
// across the other.
type ContextualResult struct {
	Recent  []store.Memory `json:"recent"`
	Salient []store.Memory `json:"salient"`
}

// All returns recent then salient memories.
func (r *ContextualResult) All() []store.Memory {
	out := make([]store.Memory, 0, len(r.Recent)+len(r.Salient))
	out = append(out, r.Recent...)
	return append(out, r.Salient...)
}

// ContextualMemories returns recent memories plus the most salient older
// ones, bounded by MaxTotal with the recent bucket first.
func (m *Manager) ContextualMemories(ctx context.Context, opts ContextOptions) (*ContextualResult, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	res := &ContextualResult{}
	err = m.update(ctx, func(c *store.Conn, now time.Time) error {
		if _, err := m.decayPass(ctx, c, now); err != nil {
			return err
		}
		recent, err := c.QueryMemories(ctx, store.MemoryFilter{
			Since: now.Add(-time.Duration(opts.DaysForRecent) * 24 * time.Hour),
			Sort:  store.SortRecency,
			Limit: opts.RecentCount,
		})
		if err != nil {
			return err
		}
		ids := make([]int64, len(recent))
		for i, mem := range recent {
			ids[i] = mem.ID
		}
		salient, err := c.QueryMemories(ctx, store.MemoryFilter{
			ExcludeIDs: ids,
			Sort:       store.SortSalience,
			Limit:      opts.SalientCount,
		})
		if err != nil {
			return err
		}

		if len(recent) > opts.MaxTotal {
			recent = recent[:opts.MaxTotal]
		}
		if room := opts.MaxTotal - len(recent); len(salient) > room {
			salient = salient[:room]
		}
		if err := m.strengthen(ctx, c, recent, now); err != nil {
			return err
		}
		if err := m.strengthen(ctx, c, salient, now); err != nil {
			return err
		}
		res.Recent, res.Salient = recent, salient
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RecallMemory surfaces one memory by id, archived or not, and strengthens it.
func (m *Manager) RecallMemory(ctx context.Context, id int64) (*store.Memory, error) {
	var mem *store.Memory
	err := m.update(ctx, func(c *store.Conn, now time.Time) error {
		var err error
		mem, err = c.GetMemory(ctx, id)
		if err != nil {
			return err
		}
		if mem == nil {
			return fmt.Errorf("memory %d: %w", id, ErrNotFound)
		}
		one := []store.Memory{*mem}
		if err := m.strengthen(ctx, c, one, now); err != nil {
			return err
		}
		*mem = one[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mem, nil
}

// strengthen records one retrieval for each memory and updates the slice in place.
func (m *Manager) strengthen(ctx context.Context, c *store.Conn, mems []store.Memory, now time.Time) error {
	for i := range mems {
		mem := &mems[i]
		consolidation := affect.Strengthen(mem.Consolidation)
		if err := c.TouchMemory(ctx, mem.ID, consolidation, now); err != nil {
			return err
		}
		mem.Consolidation = consolidation
		mem.AccessCount++
		mem.LastAccessed = now
		mem.Archived = false
	}
	return nil
}

// DecayReport summarizes one memory decay pass.
type DecayReport struct {
	Processed int           `json:"processed"`
	Archived  int           `json:"archived"`
	Duration  time.Duration `json:"duration_ns"`
}

// DecayMemories fades every active memory to now and archives the ones that
// are weakly consolidated and long unaccessed.
func (m *Manager) DecayMemories(ctx context.Context) (*DecayReport, error) {
	var rep *DecayReport
	err := m.update(ctx, func(c *store.Conn, now time.Time) error {
		var err error
		rep, err = m.decayPass(ctx, c, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (m *Manager) decayPass(ctx context.Context, c *store.Conn, now time.Time) (*DecayReport, error) {
	start := time.Now()
	mems, err := c.QueryMemories(ctx, store.MemoryFilter{})
	if err != nil {
		return nil, err
	}

	rep := &DecayReport{}
	for _, mem := range mems {
		elapsed := elapsedSince(mem.LastDecayed, now)
		s, cons := m.policy.Decay(mem.Salience, mem.Consolidation, mem.AccessCount, elapsed)
		archive := m.policy.ShouldArchive(cons, mem.LastAccessed, now)
		if elapsed <= 0 && !archive {
			continue
		}
		decayedAt := mem.LastDecayed
		if elapsed > 0 {
			decayedAt = now
		}
		if err := c.UpdateMemoryDecay(ctx, mem.ID, s, cons, decayedAt, archive); err != nil {
			return nil, err
		}
		rep.Processed++
		if archive {
			rep.Archived++
		}
	}
	rep.Duration = time.Since(start)

	m.obs.DecayPass(rep.Duration)
	if rep.Archived > 0 {
		m.obs.MemoriesArchived(rep.Archived)
		log.Info().Int("archived", rep.Archived).Int("processed", rep.Processed).Msg("memories archived")
	}
	return rep, nil
}

// MemoryStats reports memory totals.
type MemoryStats struct {
	Active   int `json:"active"`
	Archived int `json:"archived"`
	Events   int `json:"events"`
}

// Stats counts memories and events without decaying anything.
func (m *Manager) Stats(ctx context.Context) (*MemoryStats, error) {
	c := m.db.Conn()
	active, archived, err := c.MemoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	events, err := c.CountEvents(ctx)
	if err != nil {
		return nil, err
	}
	return &MemoryStats{Active: active, Archived: archived, Events: events}, nil
}
