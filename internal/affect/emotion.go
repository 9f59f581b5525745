package affect

import (
	"math"
	"sort"
	"time"
)

// DecayedThreshold is the intensity below which an instance stops counting.
const DecayedThreshold = 0.05

// signatureScale keeps a single emotion from saturating the body.
const signatureScale = 0.25

// Emotion is one time-stamped emotion instance.
type Emotion struct {
	ID               int64     `json:"id"`
	Kind             Kind      `json:"type"`
	Intensity        float64   `json:"intensity"`
	InitialIntensity float64   `json:"initial_intensity"`
	Cause            string    `json:"cause,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Decayed          bool      `json:"decayed"`
}

// NewEmotion builds an instance with intensity clamped to [0,1].
func NewEmotion(k Kind, intensity float64, cause string, at time.Time) Emotion {
	i := ClampUnit(intensity)
	return Emotion{
		Kind:             k,
		Intensity:        i,
		InitialIntensity: i,
		Cause:            cause,
		CreatedAt:        at,
		UpdatedAt:        at,
		Decayed:          i < DecayedThreshold,
	}
}

// ClampUnit clamps v into [0,1].
func ClampUnit(v float64) float64 { return clamp(v, 0, 1) }

// ClampSigned clamps v into [-1,1].
func ClampSigned(v float64) float64 { return clamp(v, -1, 1) }

// DecayIntensity halves intensity every halfLife: I * 0.5^(elapsed/halfLife).
func DecayIntensity(intensity float64, halfLife, elapsed time.Duration) float64 {
	if elapsed <= 0 || halfLife <= 0 {
		return intensity
	}
	return intensity * math.Pow(0.5, elapsed.Seconds()/halfLife.Seconds())
}

// Decay advances an active instance by elapsed and flags it once it drops
// under DecayedThreshold. It reports whether anything changed.
func (e *Emotion) Decay(elapsed time.Duration, h HalfLives) bool {
	if e.Decayed || elapsed <= 0 {
		return false
	}
	spec, ok := Lookup(e.Kind)
	if !ok {
		return false
	}
	hl := spec.EffectiveHalfLife(h.For(e.Kind))
	e.Intensity = DecayIntensity(e.Intensity, hl, elapsed)
	if e.Intensity < DecayedThreshold {
		e.Decayed = true
	}
	return true
}

// Active filters out decayed instances and orders the rest by intensity.
func Active(emotions []Emotion) []Emotion {
	out := make([]Emotion, 0, len(emotions))
	for _, e := range emotions {
		if !e.Decayed && e.Intensity >= DecayedThreshold {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Intensity > out[j].Intensity })
	return out
}

// Aggregate returns the intensity-weighted mean valence and arousal of the
// active instances, or the body's own values when nothing is active.
func Aggregate(emotions []Emotion, body Body) (valence, arousal float64) {
	var total, v, a float64
	for _, e := range Active(emotions) {
		spec, ok := Lookup(e.Kind)
		if !ok {
			continue
		}
		total += e.Intensity
		v += spec.Valence * e.Intensity
		a += spec.Arousal * e.Intensity
	}
	if total == 0 {
		return body.Valence, body.Arousal
	}
	return ClampSigned(v / total), ClampUnit(a / total)
}

// ReactivityTrait is the identity trait that scales body responses.
const ReactivityTrait = "emotional_reactivity"

// ReactivityMultiplier converts a trait strength in [0,1] into a factor in
// [0.5,1.5]; the neutral strength 0.5 maps to 1.
func ReactivityMultiplier(strength float64) float64 {
	return 0.5 + ClampUnit(strength)
}

// BodyChanges is the physiological response to feeling k at intensity.
func BodyChanges(k Kind, intensity, reactivity float64) Changes {
	spec, ok := Lookup(k)
	if !ok {
		return Changes{}
	}
	i := ClampUnit(intensity)
	c := Changes{
		ParamArousal: 0.15 * i * spec.Arousal,
		ParamValence: 0.2 * i * spec.Valence,
		ParamEnergy:  -0.02 * i,
	}
	if spec.Negative() {
		c[ParamStress] += 0.15 * i
	}
	c.Add(spec.Signature.Scale(signatureScale * i))
	return c.Scale(reactivity)
}
