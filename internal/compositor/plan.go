package compositor

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/maauso/sportsreel-api/internal/media"
)

// Plan errors.
var (
	// ErrNoSlides is returned when there is nothing to show.
	ErrNoSlides = errors.New("compositor: no slides")
	// ErrInvalidDuration is returned for a non-positive total duration.
	ErrInvalidDuration = errors.New("compositor: total duration must be positive")
)

// PlanEntry is one slide of a composition plan.
type PlanEntry struct {
	// Source is a fitted still or, once effects are rendered, a clip.
	Source   string
	Duration float64
	Effect   media.Effect
}

// Plan is the ordered slide list. Durations sum exactly to the narration length.
type Plan []PlanEntry

// SlideDurations splits total evenly over n slides. The last slide takes
// total minus the sum of the others so the durations add up to total.
func SlideDurations(n int, total float64) ([]float64, error) {
	if n <= 0 {
		return nil, ErrNoSlides
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: got %.3f", ErrInvalidDuration, total)
	}

	per := total / float64(n)
	durations := make([]float64, n)
	var others float64
	for i := 0; i < n-1; i++ {
		durations[i] = per
		others += per
	}
	durations[n-1] = total - others
	return durations, nil
}

// NewPlan assigns durations to sources in order. When rnd is non-nil every
// slide gets an independently chosen effect.
func NewPlan(sources []string, total float64, rnd *rand.Rand) (Plan, error) {
	durations, err := SlideDurations(len(sources), total)
	if err != nil {
		return nil, err
	}

	plan := make(Plan, len(sources))
	for i, src := range sources {
		plan[i] = PlanEntry{Source: src, Duration: durations[i]}
		if rnd != nil {
			plan[i].Effect = media.AllEffects[rnd.IntN(len(media.AllEffects))]
		}
	}
	return plan, nil
}

// Total returns the summed slide durations.
func (p Plan) Total() float64 {
	var sum float64
	for _, e := range p {
		sum += e.Duration
	}
	return sum
}
