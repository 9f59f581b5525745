package engine

import (
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// Observer receives engine events for metrics. Implementations must be
// safe for concurrent use and must not block.
type Observer interface {
	EmotionAdded(kind affect.Kind)
	MemoryEncoded()
	MemoriesArchived(n int)
	ClassifierFallback(reason string)
	DecayPass(took time.Duration)
}

type nopObserver struct{}

func (nopObserver) EmotionAdded(affect.Kind)  {}
func (nopObserver) MemoryEncoded()            {}
func (nopObserver) MemoriesArchived(int)      {}
func (nopObserver) ClassifierFallback(string) {}
func (nopObserver) DecayPass(time.Duration)   {}
