// Package affect is the pure model behind sable: the emotion catalog, the
// simulated body, emotion decay and aggregation, and the arithmetic of
// memory salience and consolidation. Nothing here touches storage or reads
// the clock; callers pass elapsed time in.
package affect

import (
	"sort"
	"time"
)

// Kind names an emotion type from the catalog.
type Kind string

const (
	Fear           Kind = "fear"
	Anger          Kind = "anger"
	Sadness        Kind = "sadness"
	Joy            Kind = "joy"
	Disgust        Kind = "disgust"
	Surprise       Kind = "surprise"
	Contentment    Kind = "contentment"
	Malaise        Kind = "malaise"
	Unease         Kind = "unease"
	Tension        Kind = "tension"
	Enthusiasm     Kind = "enthusiasm"
	Discouragement Kind = "discouragement"
	Shame          Kind = "shame"
	Guilt          Kind = "guilt"
	Pride          Kind = "pride"
	Admiration     Kind = "admiration"
	Contempt       Kind = "contempt"
	Compassion     Kind = "compassion"
	Desire         Kind = "desire"
	Curiosity      Kind = "curiosity"
	Anticipation   Kind = "anticipation"
	Frustration    Kind = "frustration"
)

// Category groups kinds the way the classifier prompt presents them.
type Category string

const (
	Primary    Category = "primary"
	Background Category = "background"
	Social     Category = "social"
	Complex    Category = "complex"
)

// NegativityBias stretches the half-life of negative-valence kinds.
const NegativityBias = 1.3

// Spec is the per-kind metadata row.
type Spec struct {
	Kind      Kind
	Category  Category
	Valence   float64 // [-1,1]
	Arousal   float64 // [0,1]
	HalfLife  time.Duration
	Adjective string
	// Signature is added to the body per unit of intensity, before scaling.
	Signature Changes
}

// Negative reports whether the kind carries negative valence. Neutral kinds
// (surprise) are not negative.
func (s Spec) Negative() bool { return s.Valence < 0 }

// EffectiveHalfLife applies the negativity bias to the nominal half-life.
func (s Spec) EffectiveHalfLife(nominal time.Duration) time.Duration {
	if s.Negative() {
		return time.Duration(float64(nominal) * NegativityBias)
	}
	return nominal
}

const defaultEmotionHalfLife = 10 * time.Minute

var catalog = map[Kind]Spec{
	Fear: {Kind: Fear, Category: Primary, Valence: -0.7, Arousal: 0.9, HalfLife: 2 * time.Minute, Adjective: "afraid",
		Signature: Changes{ParamTension: 0.8, ParamEnergy: -0.2, ParamStress: 0.8}},
	Anger: {Kind: Anger, Category: Primary, Valence: -0.6, Arousal: 0.85, HalfLife: 3 * time.Minute, Adjective: "angry",
		Signature: Changes{ParamTension: 0.9, ParamEnergy: 0.3, ParamStress: 0.7}},
	Sadness: {Kind: Sadness, Category: Primary, Valence: -0.7, Arousal: 0.3, HalfLife: 10 * time.Minute, Adjective: "sad",
		Signature: Changes{ParamTension: 0.4, ParamEnergy: -0.4, ParamFatigue: 0.5}},
	Joy: {Kind: Joy, Category: Primary, Valence: 0.8, Arousal: 0.6, HalfLife: 5 * time.Minute, Adjective: "joyful",
		Signature: Changes{ParamTension: -0.2, ParamEnergy: 0.4, ParamStress: -0.3}},
	Disgust:  {Kind: Disgust, Category: Primary, Valence: -0.6, Arousal: 0.5, HalfLife: 4 * time.Minute, Adjective: "disgusted"},
	Surprise: {Kind: Surprise, Category: Primary, Valence: 0, Arousal: 0.9, HalfLife: time.Minute, Adjective: "surprised"},

	Contentment: {Kind: Contentment, Category: Background, Valence: 0.6, Arousal: 0.3, HalfLife: time.Hour, Adjective: "content",
		Signature: Changes{ParamTension: -0.3, ParamStress: -0.4, ParamEnergy: 0.2}},
	Malaise:        {Kind: Malaise, Category: Background, Valence: -0.5, Arousal: 0.3, HalfLife: 2 * time.Hour, Adjective: "unwell"},
	Unease:         {Kind: Unease, Category: Background, Valence: -0.4, Arousal: 0.6, HalfLife: 30 * time.Minute, Adjective: "uneasy"},
	Tension:        {Kind: Tension, Category: Background, Valence: -0.3, Arousal: 0.7, HalfLife: 30 * time.Minute, Adjective: "tense"},
	Enthusiasm:     {Kind: Enthusiasm, Category: Background, Valence: 0.7, Arousal: 0.8, HalfLife: 20 * time.Minute, Adjective: "enthusiastic"},
	Discouragement: {Kind: Discouragement, Category: Background, Valence: -0.6, Arousal: 0.35, HalfLife: time.Hour, Adjective: "discouraged"},

	Shame:      {Kind: Shame, Category: Social, Valence: -0.8, Arousal: 0.4, HalfLife: defaultEmotionHalfLife, Adjective: "ashamed"},
	Guilt:      {Kind: Guilt, Category: Social, Valence: -0.7, Arousal: 0.45, HalfLife: defaultEmotionHalfLife, Adjective: "guilty"},
	Pride:      {Kind: Pride, Category: Social, Valence: 0.6, Arousal: 0.5, HalfLife: defaultEmotionHalfLife, Adjective: "proud"},
	Admiration: {Kind: Admiration, Category: Social, Valence: 0.5, Arousal: 0.4, HalfLife: defaultEmotionHalfLife, Adjective: "admiring"},
	Contempt:   {Kind: Contempt, Category: Social, Valence: -0.4, Arousal: 0.4, HalfLife: defaultEmotionHalfLife, Adjective: "contemptuous"},
	Compassion: {Kind: Compassion, Category: Social, Valence: 0.3, Arousal: 0.4, HalfLife: defaultEmotionHalfLife, Adjective: "compassionate"},

	Desire:       {Kind: Desire, Category: Complex, Valence: 0.4, Arousal: 0.65, HalfLife: defaultEmotionHalfLife, Adjective: "longing"},
	Curiosity:    {Kind: Curiosity, Category: Complex, Valence: 0.2, Arousal: 0.6, HalfLife: defaultEmotionHalfLife, Adjective: "curious"},
	Anticipation: {Kind: Anticipation, Category: Complex, Valence: 0.3, Arousal: 0.7, HalfLife: defaultEmotionHalfLife, Adjective: "expectant"},
	Frustration:  {Kind: Frustration, Category: Complex, Valence: -0.5, Arousal: 0.75, HalfLife: defaultEmotionHalfLife, Adjective: "frustrated"},
}

// Lookup returns the catalog row for a kind.
func Lookup(k Kind) (Spec, bool) {
	s, ok := catalog[k]
	return s, ok
}

// ParseKind validates a free-form name against the catalog.
func ParseKind(name string) (Kind, bool) {
	k := Kind(name)
	_, ok := catalog[k]
	return k, ok
}

// Kinds returns every catalog kind in name order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(catalog))
	for k := range catalog {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// KindsIn returns the kinds of one category in name order.
func KindsIn(c Category) []Kind {
	var out []Kind
	for _, k := range Kinds() {
		if catalog[k].Category == c {
			out = append(out, k)
		}
	}
	return out
}

// HalfLives maps kind to nominal half-life; overrides from decay_config
// replace individual entries.
type HalfLives map[Kind]time.Duration

// DefaultHalfLives returns the catalog half-lives.
func DefaultHalfLives() HalfLives {
	h := make(HalfLives, len(catalog))
	for k, s := range catalog {
		h[k] = s.HalfLife
	}
	return h
}

// For returns the nominal half-life of k, falling back to the catalog.
func (h HalfLives) For(k Kind) time.Duration {
	if d, ok := h[k]; ok && d > 0 {
		return d
	}
	if s, ok := catalog[k]; ok {
		return s.HalfLife
	}
	return defaultEmotionHalfLife
}
