package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// Memory is an encoded event: the event fields joined with its memory row.
type Memory struct {
	ID                 int64         `json:"id"`
	EventID            int64         `json:"event_id"`
	Description        string        `json:"description"`
	Context            string        `json:"context,omitempty"`
	Impact             affect.Impact `json:"emotional_impact"`
	OccurredAt         time.Time     `json:"occurred_at"`
	Salience           float64       `json:"emotional_salience"`
	Consolidation      float64       `json:"consolidation_level"`
	AccessCount        int           `json:"access_count"`
	LastAccessed       time.Time     `json:"last_accessed"`
	LastDecayed        time.Time     `json:"-"`
	IdentityRelevance  float64       `json:"identity_relevance"`
	NarrativeRole      string        `json:"narrative_role,omitempty"`
	AssociatedEmotions []affect.Kind `json:"associated_emotions"`
	Archived           bool          `json:"archived"`
	LogbookPath        string        `json:"logbook_path,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
}

// SortKey orders memory query results.
type SortKey string

const (
	SortSalience SortKey = "salience"
	SortRecency  SortKey = "recency"
	SortAccess   SortKey = "access_count"
)

// ParseSortKey validates a sort name. Empty means salience.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortSalience:
		return SortSalience, true
	case SortRecency:
		return SortRecency, true
	case SortAccess:
		return SortAccess, true
	}
	return "", false
}

func (k SortKey) orderBy() string {
	switch k {
	case SortRecency:
		return "e.created_at DESC, m.id DESC"
	case SortAccess:
		return "m.access_count DESC, m.emotional_salience DESC, m.id DESC"
	}
	return "m.emotional_salience DESC, m.consolidation_level DESC, m.id DESC"
}

// MemoryFilter selects memories. Zero values disable a filter; Limit 0 means no limit.
type MemoryFilter struct {
	MinSalience          float64
	MinIdentityRelevance float64
	Emotion              affect.Kind
	Search               string
	Since                time.Time
	Until                time.Time
	IncludeArchived      bool
	ExcludeIDs           []int64
	Sort                 SortKey
	Limit                int
}

const memorySelect = `
SELECT m.id, m.event_id, e.description, e.context, e.emotional_impact, e.created_at,
       m.emotional_salience, m.consolidation_level, m.access_count, m.last_accessed, m.last_decayed,
       m.identity_relevance, m.narrative_role, m.associated_emotions, m.archived, m.logbook_path, m.created_at
FROM memories m
JOIN events e ON e.id = m.event_id`

// InsertMemory persists a memory for an existing event and sets its ID.
func (c *Conn) InsertMemory(ctx context.Context, m *Memory) error {
	assoc, err := json.Marshal(kindsOrEmpty(m.AssociatedEmotions))
	if err != nil {
		return fmt.Errorf("marshal associated emotions: %w", err)
	}
	res, err := c.q.ExecContext(ctx, `
		INSERT INTO memories (event_id, emotional_salience, consolidation_level, access_count,
			last_accessed, last_decayed, identity_relevance, narrative_role, associated_emotions,
			archived, logbook_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.EventID, affect.ClampUnit(m.Salience), affect.ClampUnit(m.Consolidation), m.AccessCount,
		toMillis(m.LastAccessed), toMillis(m.LastDecayed), affect.ClampUnit(m.IdentityRelevance),
		nullString(m.NarrativeRole), string(assoc), boolInt(m.Archived), nullString(m.LogbookPath),
		toMillis(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert memory id: %w", err)
	}
	m.ID = id
	return nil
}

// GetMemory retrieves a memory by ID, archived or not. Returns nil, nil if not found.
func (c *Conn) GetMemory(ctx context.Context, id int64) (*Memory, error) {
	row := c.q.QueryRowContext(ctx, memorySelect+` WHERE m.id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory %d: %w", id, err)
	}
	return m, nil
}

// QueryMemories returns memories matching f in the requested order.
func (c *Conn) QueryMemories(ctx context.Context, f MemoryFilter) ([]Memory, error) {
	var where []string
	var args []any

	if !f.IncludeArchived {
		where = append(where, "m.archived = 0")
	}
	if f.MinSalience > 0 {
		where = append(where, "m.emotional_salience >= ?")
		args = append(args, f.MinSalience)
	}
	if f.MinIdentityRelevance > 0 {
		where = append(where, "m.identity_relevance >= ?")
		args = append(args, f.MinIdentityRelevance)
	}
	if f.Emotion != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(m.associated_emotions) WHERE json_each.value = ?)")
		args = append(args, string(f.Emotion))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		where = append(where, `(e.description LIKE ? ESCAPE '\' OR COALESCE(e.context, '') LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if !f.Since.IsZero() {
		where = append(where, "e.created_at >= ?")
		args = append(args, toMillis(f.Since))
	}
	if !f.Until.IsZero() {
		where = append(where, "e.created_at <= ?")
		args = append(args, toMillis(f.Until))
	}
	if len(f.ExcludeIDs) > 0 {
		where = append(where, "m.id NOT IN ("+placeholders(len(f.ExcludeIDs))+")")
		for _, id := range f.ExcludeIDs {
			args = append(args, id)
		}
	}

	query := memorySelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY " + f.Sort.orderBy()
	if f.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var out []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// TouchMemory records one retrieval: access_count+1, the new consolidation,
// last_accessed, and clears the archived flag.
func (c *Conn) TouchMemory(ctx context.Context, id int64, consolidation float64, at time.Time) error {
	_, err := c.q.ExecContext(ctx, `
		UPDATE memories
		SET access_count = access_count + 1, consolidation_level = ?, last_accessed = ?, archived = 0
		WHERE id = ?`,
		affect.ClampUnit(consolidation), toMillis(at), id,
	)
	if err != nil {
		return fmt.Errorf("touch memory %d: %w", id, err)
	}
	return nil
}

// UpdateMemoryDecay writes the result of a decay pass.
func (c *Conn) UpdateMemoryDecay(ctx context.Context, id int64, salience, consolidation float64, decayedAt time.Time, archived bool) error {
	_, err := c.q.ExecContext(ctx, `
		UPDATE memories
		SET emotional_salience = ?, consolidation_level = ?, last_decayed = ?, archived = ?
		WHERE id = ?`,
		affect.ClampUnit(salience), affect.ClampUnit(consolidation), toMillis(decayedAt), boolInt(archived), id,
	)
	if err != nil {
		return fmt.Errorf("decay memory %d: %w", id, err)
	}
	return nil
}

// SetLogbookPath links a memory to a logbook entry. Reports whether the memory exists.
func (c *Conn) SetLogbookPath(ctx context.Context, id int64, path string) (bool, error) {
	res, err := c.q.ExecContext(ctx, `UPDATE memories SET logbook_path = ? WHERE id = ?`, nullString(path), id)
	if err != nil {
		return false, fmt.Errorf("set logbook path %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryCounts reports active and archived memory totals.
func (c *Conn) MemoryCounts(ctx context.Context) (active, archived int, err error) {
	err = c.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN archived = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN archived = 1 THEN 1 ELSE 0 END), 0)
		FROM memories`).Scan(&active, &archived)
	if err != nil {
		return 0, 0, fmt.Errorf("memory counts: %w", err)
	}
	return active, archived, nil
}

func scanMemory(s scanner) (*Memory, error) {
	var m Memory
	var evCtx, role, logbook sql.NullString
	var impact, assoc string
	var occurred, accessed, decayed, created int64
	var archived int
	if err := s.Scan(&m.ID, &m.EventID, &m.Description, &evCtx, &impact, &occurred,
		&m.Salience, &m.Consolidation, &m.AccessCount, &accessed, &decayed,
		&m.IdentityRelevance, &role, &assoc, &archived, &logbook, &created); err != nil {
		return nil, err
	}
	m.Context = evCtx.String
	m.NarrativeRole = role.String
	m.LogbookPath = logbook.String
	m.OccurredAt = fromMillis(occurred)
	m.LastAccessed = fromMillis(accessed)
	m.LastDecayed = fromMillis(decayed)
	m.CreatedAt = fromMillis(created)
	m.Archived = archived != 0

	var err error
	if m.Impact, err = unmarshalImpact(impact); err != nil {
		return nil, err
	}
	m.AssociatedEmotions = []affect.Kind{}
	if assoc != "" {
		if err := json.Unmarshal([]byte(assoc), &m.AssociatedEmotions); err != nil {
			return nil, fmt.Errorf("unmarshal associated emotions: %w", err)
		}
	}
	return &m, nil
}

func kindsOrEmpty(k []affect.Kind) []affect.Kind {
	if k == nil {
		return []affect.Kind{}
	}
	return k
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
