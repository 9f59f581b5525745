package engine

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/logbook"
	"github.com/lazypower/sable/internal/store"
)

// ErrNoLogbook is returned by logbook operations when none is configured.
var ErrNoLogbook = errors.New("logbook not configured")

// AttachLogbook links a memory to an existing logbook entry path.
func (m *Manager) AttachLogbook(ctx context.Context, memoryID int64, entryPath string) error {
	entryPath = strings.TrimSpace(entryPath)
	if entryPath == "" {
		return invalid("logbook_path", "is required")
	}
	return m.update(ctx, func(c *store.Conn, _ time.Time) error {
		ok, err := c.SetLogbookPath(ctx, memoryID, entryPath)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("memory %d: %w", memoryID, ErrNotFound)
		}
		return nil
	})
}

// WriteLogbook writes an entry and, when it names a memory, links the two.
// Metadata left empty is filled from the memory.
func (m *Manager) WriteLogbook(ctx context.Context, e logbook.Entry) (*logbook.Entry, error) {
	if m.book == nil {
		return nil, ErrNoLogbook
	}
	if strings.TrimSpace(e.Title) == "" {
		return nil, invalid("title", "is required")
	}

	err := m.update(ctx, func(c *store.Conn, now time.Time) error {
		var mem *store.Memory
		if e.MemoryID != 0 {
			var err error
			if mem, err = c.GetMemory(ctx, e.MemoryID); err != nil {
				return err
			}
			if mem == nil {
				return fmt.Errorf("memory %d: %w", e.MemoryID, ErrNotFound)
			}
			fillFromMemory(&e, mem)
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}

		name, err := m.book.Write(e)
		if err != nil {
			return err
		}
		e.Path = path.Join("logbook", name)
		log.Info().Str("path", e.Path).Int64("memory", e.MemoryID).Msg("logbook entry written")

		if mem == nil {
			return nil
		}
		_, err = c.SetLogbookPath(ctx, mem.ID, e.Path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func fillFromMemory(e *logbook.Entry, mem *store.Memory) {
	if e.Salience == 0 {
		e.Salience = mem.Salience
	}
	if len(e.Emotions) == 0 {
		for _, k := range mem.AssociatedEmotions {
			e.Emotions = append(e.Emotions, string(k))
		}
	}
	if e.NarrativeRole == "" {
		e.NarrativeRole = mem.NarrativeRole
	}
	if e.Context == "" {
		e.Context = mem.Description
	}
}
