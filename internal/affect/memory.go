package affect

import (
	"math"
	"time"
)

// Impact maps emotion kind to intensity for a single event.
type Impact map[Kind]float64

// Total sums the intensities, each clamped to [0,1].
func (im Impact) Total() float64 {
	var sum float64
	for _, v := range im {
		sum += ClampUnit(v)
	}
	return sum
}

// Kinds returns the impact keys in name order.
func (im Impact) Kinds() []Kind {
	out := make([]Kind, 0, len(im))
	for _, k := range Kinds() {
		if _, ok := im[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Primary returns the strongest kind, ties broken by name.
func (im Impact) Primary() (Kind, bool) {
	var best Kind
	bestV := -1.0
	for _, k := range im.Kinds() {
		if im[k] > bestV {
			best, bestV = k, im[k]
		}
	}
	return best, bestV >= 0
}

// InitialConsolidation is the consolidation of a freshly encoded memory.
const InitialConsolidation = 0.5

// accessGain is the multiplicative consolidation gain per retrieval.
const accessGain = 1.05

// MemoryPolicy carries the tunables of the memory lifecycle.
type MemoryPolicy struct {
	SignificanceThreshold float64
	ExpectedMaxImpact     float64
	BaseHalfLife          time.Duration
	ArchiveAfter          time.Duration
	ArchiveConsolidation  float64
	ConsolidationFloor    float64
}

// DefaultMemoryPolicy returns the standard lifecycle settings.
func DefaultMemoryPolicy() MemoryPolicy {
	return MemoryPolicy{
		SignificanceThreshold: 0.8,
		ExpectedMaxImpact:     2.0,
		BaseHalfLife:          30 * 24 * time.Hour,
		ArchiveAfter:          90 * 24 * time.Hour,
		ArchiveConsolidation:  0.1,
		ConsolidationFloor:    0.3,
	}
}

// Significant reports whether an event's impact is strong enough to become
// a memory.
func (p MemoryPolicy) Significant(im Impact) bool {
	return im.Total() > p.SignificanceThreshold
}

// Salience normalizes an impact total into [0,1].
func (p MemoryPolicy) Salience(im Impact) float64 {
	if p.ExpectedMaxImpact <= 0 {
		return ClampUnit(im.Total())
	}
	return math.Min(1, im.Total()/p.ExpectedMaxImpact)
}

// HalfLifeMultiplier slows decay for salient, consolidated and frequently
// accessed memories. Each factor caps at 2 independently.
func HalfLifeMultiplier(salience, consolidation float64, accessCount int) float64 {
	return math.Min(2, 1+salience) *
		math.Min(2, 1+consolidation) *
		math.Min(2, 1+0.1*float64(accessCount))
}

// EffectiveHalfLife is the base half-life scaled by HalfLifeMultiplier.
func (p MemoryPolicy) EffectiveHalfLife(salience, consolidation float64, accessCount int) time.Duration {
	m := HalfLifeMultiplier(salience, consolidation, accessCount)
	return time.Duration(float64(p.BaseHalfLife) * m)
}

// Decay fades salience and consolidation over elapsed. Consolidation keeps
// a floor proportional to the remaining salience but never rises here.
func (p MemoryPolicy) Decay(salience, consolidation float64, accessCount int, elapsed time.Duration) (float64, float64) {
	if elapsed <= 0 {
		return salience, consolidation
	}
	hl := p.EffectiveHalfLife(salience, consolidation, accessCount)
	f := math.Pow(0.5, elapsed.Seconds()/hl.Seconds())

	s := ClampUnit(salience * f)
	c := math.Max(consolidation*f, s*p.ConsolidationFloor)
	c = math.Min(consolidation, c)
	return s, ClampUnit(c)
}

// Strengthen returns the consolidation after one retrieval.
func Strengthen(consolidation float64) float64 {
	return math.Min(1, ClampUnit(consolidation)*accessGain)
}

// ShouldArchive applies the archival rule: weakly consolidated and not
// touched for longer than ArchiveAfter.
func (p MemoryPolicy) ShouldArchive(consolidation float64, lastAccessed, now time.Time) bool {
	return consolidation < p.ArchiveConsolidation && now.Sub(lastAccessed) > p.ArchiveAfter
}
