package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/sable/internal/affect"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestBodySnapshots(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	c := db.Conn()

	snap, err := c.LatestBody(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap, "no snapshot yet")

	first := affect.NewBody()
	_, err = c.SaveBody(ctx, fixedNow, first)
	require.NoError(t, err)

	second := first
	second.Valence = 1.7 // clamped on write
	second.Stress = 0.9
	_, err = c.SaveBody(ctx, fixedNow.Add(time.Minute), second)
	require.NoError(t, err)

	snap, err = c.LatestBody(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, snap.Timestamp.Equal(fixedNow.Add(time.Minute)))
	assert.Equal(t, 1.0, snap.Body.Valence)
	assert.Equal(t, 0.9, snap.Body.Stress)

	history, err := c.BodyHistory(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestEmotionLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	c := db.Conn()

	fear := affect.NewEmotion(affect.Fear, 0.8, "deadline", fixedNow)
	require.NoError(t, c.InsertEmotion(ctx, &fear))
	assert.NotZero(t, fear.ID)

	joy := affect.NewEmotion(affect.Joy, 0.6, "", fixedNow)
	require.NoError(t, c.InsertEmotion(ctx, &joy))

	active, err := c.ActiveEmotions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, affect.Fear, active[0].Kind)
	assert.Equal(t, "deadline", active[0].Cause)

	joy.Intensity = 0.01
	joy.Decayed = true
	joy.UpdatedAt = fixedNow.Add(time.Hour)
	require.NoError(t, c.UpdateEmotion(ctx, joy))

	active, err = c.ActiveEmotions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, affect.Fear, active[0].Kind)

	history, err := c.RecentEmotions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2, "decayed instances stay as history")
}

func seedMemory(t *testing.T, c *Conn, desc string, at time.Time, salience float64, impact affect.Impact) Memory {
	t.Helper()
	ctx := context.Background()
	ev := Event{Description: desc, Impact: impact, CreatedAt: at}
	require.NoError(t, c.InsertEvent(ctx, &ev))
	m := Memory{
		EventID:            ev.ID,
		Salience:           salience,
		Consolidation:      affect.InitialConsolidation,
		LastAccessed:       at,
		LastDecayed:        at,
		IdentityRelevance:  0.5,
		AssociatedEmotions: impact.Kinds(),
		CreatedAt:          at,
	}
	require.NoError(t, c.InsertMemory(ctx, &m))
	return m
}

func TestEventRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	c := db.Conn()

	ev := Event{Description: "shipped release", Context: "friday", Impact: affect.Impact{affect.Pride: 0.7}, CreatedAt: fixedNow}
	require.NoError(t, c.InsertEvent(ctx, &ev))

	got, err := c.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "friday", got.Context)
	assert.Equal(t, 0.7, got.Impact[affect.Pride])

	missing, err := c.GetEvent(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := c.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQueryMemoriesFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	c := db.Conn()

	old := seedMemory(t, c, "database migration failed badly", fixedNow.Add(-48*time.Hour), 0.9,
		affect.Impact{affect.Fear: 0.6, affect.Frustration: 0.5})
	mid := seedMemory(t, c, "pairing session went well", fixedNow.Add(-24*time.Hour), 0.5,
		affect.Impact{affect.Joy: 0.9})
	recent := seedMemory(t, c, "100% coverage_reached", fixedNow, 0.7,
		affect.Impact{affect.Pride: 0.9})

	all, err := c.QueryMemories(ctx, MemoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{old.ID, recent.ID, mid.ID}, ids(all), "salience order by default")

	byRecency, err := c.QueryMemories(ctx, MemoryFilter{Sort: SortRecency})
	require.NoError(t, err)
	assert.Equal(t, []int64{recent.ID, mid.ID, old.ID}, ids(byRecency))

	fear, err := c.QueryMemories(ctx, MemoryFilter{Emotion: affect.Fear})
	require.NoError(t, err)
	assert.Equal(t, []int64{old.ID}, ids(fear))

	search, err := c.QueryMemories(ctx, MemoryFilter{Search: "MIGRATION"})
	require.NoError(t, err)
	assert.Equal(t, []int64{old.ID}, ids(search), "search is case-insensitive")

	literal, err := c.QueryMemories(ctx, MemoryFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []int64{recent.ID}, ids(literal), "like wildcards are escaped")

	salient, err := c.QueryMemories(ctx, MemoryFilter{MinSalience: 0.6})
	require.NoError(t, err)
	assert.Equal(t, []int64{old.ID, recent.ID}, ids(salient))

	window, err := c.QueryMemories(ctx, MemoryFilter{Since: fixedNow.Add(-30 * time.Hour), Until: fixedNow.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []int64{mid.ID}, ids(window))

	excluded, err := c.QueryMemories(ctx, MemoryFilter{ExcludeIDs: []int64{old.ID, mid.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{recent.ID}, ids(excluded))

	limited, err := c.QueryMemories(ctx, MemoryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestArchivedMemoriesHiddenByDefault(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	c := db.Conn()

	m := seedMemory(t, c, "forgotten thing", fixedNow, 0.5, affect.Impact{affect.Sadness: 0.9})
	require.NoError(t, c.UpdateMemoryDecay(ctx, m.ID, 0.05, 0.05, fixedNow, true))

	visible, err := c.QueryMemories(ctx, MemoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	withArchived, err := c.QueryMemories(ctx, MemoryFilter{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, withArchived, 1)
	assert.True(t, withArchived[0].Archived)

	active, archived, err := c.MemoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, archived)

	// Touch un-archives.
	require.NoError(t, c.TouchMemory(ctx, m.ID, affect.Strengthen(0.05), fixedNow.Add(time.Hour)))
	got, err := c.GetMemory(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Archived)
	assert.Equal(t, 1, got.AccessCount)
	assert.InDelta(t, 0.0525, got.Consolidation, 1e-9)
	assert.True(t, got.LastAccessed.Equal(fixedNow.Add(time.Hour)))
}

func TestMemoryLogbookPath(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	c := db.Conn()

	m := seedMemory(t, c, "journal worthy", fixedNow, 0.8, affect.Impact{affect.Pride: 1})
	ok, err := c.SetLogbookPath(ctx, m.ID, "2026-03-14_090000_journal-worthy.md")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetLogbookPath(ctx, 4242, "x.md")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := c.GetMemory(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14_090000_journal-worthy.md", got.LogbookPath)
	assert.Equal(t, []affect.Kind{affect.Pride}, got.AssociatedEmotions)
}

func TestMarkerUpsertKeepsReinforcement(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	c := db.Conn()

	m := Marker{
		CuePattern:   "deploy",
		Profile:      map[affect.Kind]float64{affect.Fear: 0.6},
		Valence:      -0.7,
		Strength:     0.5,
		SupportCount: 2,
		UpdatedAt:    fixedNow,
	}
	require.NoError(t, c.UpsertMarker(ctx, &m))
	require.NotZero(t, m.ID)

	require.NoError(t, c.RecordReinforcement(ctx, m.ID, 0.55, fixedNow.Add(time.Hour)))

	again := Marker{CuePattern: "deploy", Profile: map[affect.Kind]float64{affect.Fear: 0.4}, Valence: -0.7, Strength: 0.8, SupportCount: 3, UpdatedAt: fixedNow.Add(2 * time.Hour)}
	require.NoError(t, c.UpsertMarker(ctx, &again))
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, 1, again.ReinforcementCount)

	got, err := c.GetMarkerByCue(ctx, "deploy")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 0.85, got.Strength, 1e-9, "rescan keeps the reinforcement offset")
	assert.InDelta(t, 0.05, got.ReinforcementDelta, 1e-9)
	assert.InDelta(t, 0.85, again.Strength, 1e-9)
	assert.Equal(t, 3, got.SupportCount)
	assert.Equal(t, 0.4, got.Profile[affect.Fear])
	require.NotNil(t, got.LastActivated)

	weak := Marker{CuePattern: "lunch", Strength: 0.1, UpdatedAt: fixedNow}
	require.NoError(t, c.UpsertMarker(ctx, &weak))

	list, err := c.ListMarkers(ctx, 0.3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "deploy", list[0].CuePattern)

	none, err := c.GetMarkerByCue(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, c.RecordReinforcement(ctx, m.ID, 0.1, fixedNow.Add(3*time.Hour)))
	again.Strength = 0.3
	require.NoError(t, c.UpsertMarker(ctx, &again))
	got, err = c.GetMarkerByCue(ctx, "deploy")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got.Strength, 1e-9, "clamped at the reinforcement floor")
}

func TestTraits(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	c := db.Conn()

	_, ok, err := c.TraitStrength(ctx, affect.ReactivityTrait)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetTrait(ctx, affect.ReactivityTrait, 0.9, fixedNow))
	require.NoError(t, c.SetTrait(ctx, affect.ReactivityTrait, 0.2, fixedNow))
	require.NoError(t, c.SetTrait(ctx, "curiosity", 1.5, fixedNow))

	s, ok, err := c.TraitStrength(ctx, affect.ReactivityTrait)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.2, s)

	traits, err := c.Traits(ctx)
	require.NoError(t, err)
	require.Len(t, traits, 2)
	assert.Equal(t, "curiosity", traits[0].Name)
	assert.Equal(t, 1.0, traits[0].Strength)
}

func TestDecayConfigOverrides(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	c := db.Conn()

	cfg, err := c.LoadDecayConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, affect.DefaultHomeostasis(), cfg.Body)
	assert.Equal(t, 2*time.Minute, cfg.Emotions.For(affect.Fear))

	require.NoError(t, c.SetEmotionHalfLife(ctx, affect.Fear, 10*time.Minute))
	require.NoError(t, c.SetBodyDecay(ctx, affect.ParamStress, affect.Homeostat{Baseline: 0.4, HalfLife: time.Hour}))
	assert.Error(t, c.SetEmotionHalfLife(ctx, affect.Joy, 0))

	cfg, err = c.LoadDecayConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.Emotions.For(affect.Fear))
	assert.Equal(t, affect.Homeostat{Baseline: 0.4, HalfLife: time.Hour}, cfg.Body[affect.ParamStress])
}

func ids(ms []Memory) []int64 {
	out := make([]int64, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}
