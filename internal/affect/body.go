package affect

import (
	"math"
	"time"
)

// Param names one body parameter.
type Param string

const (
	ParamEnergy  Param = "energy"
	ParamStress  Param = "stress"
	ParamArousal Param = "arousal"
	ParamValence Param = "valence"
	ParamTension Param = "tension"
	ParamFatigue Param = "fatigue"
	ParamPain    Param = "pain"
	ParamHunger  Param = "hunger"
)

// Params lists every body parameter in display order.
var Params = []Param{
	ParamEnergy, ParamStress, ParamArousal, ParamValence,
	ParamTension, ParamFatigue, ParamPain, ParamHunger,
}

// ParseParam validates a parameter name.
func ParseParam(name string) (Param, bool) {
	for _, p := range Params {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// Bounds returns the valid range of p. Valence is the only signed parameter.
func (p Param) Bounds() (lo, hi float64) {
	if p == ParamValence {
		return -1, 1
	}
	return 0, 1
}

// Changes is a set of additive deltas keyed by parameter.
type Changes map[Param]float64

// Add accumulates other into c.
func (c Changes) Add(other Changes) {
	for p, d := range other {
		c[p] += d
	}
}

// Scale returns a copy of c multiplied by f.
func (c Changes) Scale(f float64) Changes {
	out := make(Changes, len(c))
	for p, d := range c {
		out[p] = d * f
	}
	return out
}

// Homeostat is the fixed point and decay rate of one parameter.
type Homeostat struct {
	Baseline float64
	HalfLife time.Duration
}

// Homeostasis holds the decay settings for every parameter.
type Homeostasis map[Param]Homeostat

// DefaultHomeostasis returns the built-in baselines and half-lives.
func DefaultHomeostasis() Homeostasis {
	return Homeostasis{
		ParamEnergy:  {Baseline: 0.7, HalfLife: 60 * time.Minute},
		ParamStress:  {Baseline: 0.2, HalfLife: 30 * time.Minute},
		ParamArousal: {Baseline: 0.5, HalfLife: 10 * time.Minute},
		ParamValence: {Baseline: 0.1, HalfLife: 20 * time.Minute},
		ParamTension: {Baseline: 0.2, HalfLife: 30 * time.Minute},
		ParamFatigue: {Baseline: 0.1, HalfLife: 120 * time.Minute},
		ParamPain:    {Baseline: 0.0, HalfLife: 60 * time.Minute},
		ParamHunger:  {Baseline: 0.3, HalfLife: 240 * time.Minute},
	}
}

// Body is the proto-self: a snapshot of physiological parameters.
type Body struct {
	Energy  float64 `json:"energy"`
	Stress  float64 `json:"stress"`
	Arousal float64 `json:"arousal"`
	Valence float64 `json:"valence"`
	Tension float64 `json:"tension"`
	Fatigue float64 `json:"fatigue"`
	Pain    float64 `json:"pain"`
	Hunger  float64 `json:"hunger"`
}

// NewBody returns the state of a freshly initialized body.
func NewBody() Body {
	return Body{
		Energy:  0.7,
		Stress:  0.3,
		Arousal: 0.5,
		Valence: 0.1,
		Tension: 0.3,
		Fatigue: 0.2,
		Pain:    0,
		Hunger:  0.3,
	}
}

func (b *Body) field(p Param) *float64 {
	switch p {
	case ParamEnergy:
		return &b.Energy
	case ParamStress:
		return &b.Stress
	case ParamArousal:
		return &b.Arousal
	case ParamValence:
		return &b.Valence
	case ParamTension:
		return &b.Tension
	case ParamFatigue:
		return &b.Fatigue
	case ParamPain:
		return &b.Pain
	case ParamHunger:
		return &b.Hunger
	}
	return nil
}

// Get returns the value of p.
func (b Body) Get(p Param) float64 {
	if f := b.field(p); f != nil {
		return *f
	}
	return 0
}

// Decay pulls every parameter toward its baseline:
// value = baseline + (value - baseline) * exp(-ln2 * elapsed / halfLife).
func (b *Body) Decay(elapsed time.Duration, h Homeostasis) {
	if elapsed <= 0 {
		return
	}
	for _, p := range Params {
		hs, ok := h[p]
		if !ok || hs.HalfLife <= 0 {
			continue
		}
		f := b.field(p)
		k := math.Exp(-math.Ln2 * elapsed.Seconds() / hs.HalfLife.Seconds())
		*f = clampParam(p, hs.Baseline+(*f-hs.Baseline)*k)
	}
}

// ApplyChanges adds each delta and clamps. Out-of-range results are
// corrected silently.
func (b *Body) ApplyChanges(c Changes) {
	for _, p := range Params {
		d, ok := c[p]
		if !ok || math.IsNaN(d) {
			continue
		}
		f := b.field(p)
		*f = clampParam(p, *f+d)
	}
}

// Clamp forces every parameter into its declared range.
func (b *Body) Clamp() {
	for _, p := range Params {
		f := b.field(p)
		*f = clampParam(p, *f)
	}
}

func clampParam(p Param, v float64) float64 {
	lo, hi := p.Bounds()
	return clamp(v, lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BackgroundLabel is the diffuse mood derived from body parameters alone.
type BackgroundLabel string

const (
	BackgroundUnease         BackgroundLabel = "unease"
	BackgroundTension        BackgroundLabel = "tension"
	BackgroundMalaise        BackgroundLabel = "malaise"
	BackgroundDiscouragement BackgroundLabel = "discouragement"
	BackgroundVigor          BackgroundLabel = "vigor"
	BackgroundContentment    BackgroundLabel = "contentment"
	BackgroundEnthusiasm     BackgroundLabel = "enthusiasm"
	BackgroundEquanimity     BackgroundLabel = "equanimity"
)

// BackgroundEmotion maps the body to a label. Stress and tension bands are
// checked before energy and valence bands.
func (b Body) BackgroundEmotion() BackgroundLabel {
	switch {
	case b.Stress > 0.7 && b.Tension > 0.6:
		return BackgroundUnease
	case b.Tension > 0.7 || (b.Stress > 0.6 && b.Valence < 0):
		return BackgroundTension
	case b.Energy < 0.3 && (b.Fatigue > 0.6 || b.Valence < -0.2):
		return BackgroundMalaise
	case b.Energy < 0.5 && b.Arousal < 0.3:
		return BackgroundDiscouragement
	case b.Energy > 0.7 && b.Valence > 0.3 && b.Stress < 0.3:
		return BackgroundVigor
	case b.Valence > 0.4 && b.Stress < 0.4:
		return BackgroundContentment
	case b.Arousal > 0.7 && b.Valence > 0:
		return BackgroundEnthusiasm
	}
	return BackgroundEquanimity
}

var pressureTerms = []struct {
	p      Param
	ideal  float64
	weight float64
}{
	{ParamEnergy, 0.7, 1.2},
	{ParamStress, 0.2, 1.0},
	{ParamArousal, 0.5, 0.8},
	{ParamValence, 0.2, 1.0},
	{ParamTension, 0.2, 0.7},
	{ParamFatigue, 0.1, 1.0},
	{ParamPain, 0.0, 1.5},
	{ParamHunger, 0.3, 0.6},
}

// HomeostaticPressure is the weighted mean deviation from the ideal
// operating point, in [0,1]. Zero means fully regulated.
func (b Body) HomeostaticPressure() float64 {
	var sum float64
	for _, t := range pressureTerms {
		sum += math.Abs(b.Get(t.p)-t.ideal) * t.weight
	}
	return clamp(sum/float64(len(pressureTerms)), 0, 1)
}
