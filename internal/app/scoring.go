package app

import (
	"context"

	"venue_reputation/internal/domain"
	"venue_reputation/internal/popularity"
)

func sourcesOf(v domain.Venue) [2]popularity.Source {
	return [2]popularity.Source{
		{Rating: v.Naver.Rating, Count: v.Naver.Count},
		{Rating: v.Google.Rating, Count: v.Google.Count},
	}
}

// rescore recomputes the stored popularity score from the venue's current
// source pairs. It must run after whatever changed those inputs committed.
func rescore(ctx context.Context, venues domain.VenueRepository, venueID string) (float64, error) {
	v, err := venues.GetVenue(ctx, venueID)
	if err != nil {
		return 0, err
	}
	score := popularity.ComputeScore(sourcesOf(v))
	if err := venues.UpdatePopularityScore(ctx, venueID, score); err != nil {
		return 0, err
	}
	return score, nil
}
