// Package popularity turns external source ratings into a single 0-5
// popularity score and maps scores to reputation tiers.
package popularity

import (
	"errors"
	"fmt"
	"math"
)

const (
	MaxScore = 5.0

	// each source contributes up to this much for rating and again for volume
	sourceWeight = 1.25
	// review count at which the volume contribution saturates
	volumeThreshold = 100.0
)

// Source is one provider's rating and review count. Nil fields contribute nothing.
type Source struct {
	Rating *float64
	Count  *int
}

var ErrInvalidSource = errors.New("invalid source rating")

// Validate rejects values ComputeScore must never see. ComputeScore does not
// clamp bad inputs, so callers check first.
func (s Source) Validate() error {
	if s.Rating != nil && (*s.Rating < 0 || *s.Rating > MaxScore || math.IsNaN(*s.Rating)) {
		return fmt.Errorf("%w: rating %v outside [0,5]", ErrInvalidSource, *s.Rating)
	}
	if s.Count != nil && *s.Count < 0 {
		return fmt.Errorf("%w: negative review count %d", ErrInvalidSource, *s.Count)
	}
	return nil
}

// ComputeScore adds, per source, (rating/5)*1.25 when rating > 0 and
// min(count/100, 1)*1.25 when count > 0. Sources are not renormalized, so a
// venue with a single source tops out at 2.5. The total is clamped to [0,5]
// and rounded to two decimals.
func ComputeScore(sources [2]Source) float64 {
	total := 0.0
	for _, s := range sources {
		total += ratingContribution(s.Rating) + volumeContribution(s.Count)
	}
	total = math.Max(0, math.Min(MaxScore, total))
	return math.Round(total*100) / 100
}

func ratingContribution(r *float64) float64 {
	if r == nil || *r <= 0 {
		return 0
	}
	return (*r / 5.0) * sourceWeight
}

func volumeContribution(c *int) float64 {
	if c == nil || *c <= 0 {
		return 0
	}
	return math.Min(float64(*c)/volumeThreshold, 1.0) * sourceWeight
}
