package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"venue_reputation/internal/domain"
	"venue_reputation/internal/popularity"
)

// RatingsService keeps the external source pairs and the popularity score
// they imply in step.
type RatingsService struct {
	venues domain.VenueRepository
	lookup domain.RatingLookup
	cache  domain.Cache
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRatingsService(v domain.VenueRepository, l domain.RatingLookup, c domain.Cache) *RatingsService {
	return &RatingsService{venues: v, lookup: l, cache: c, sleep: sleepCtx}
}

type RefreshResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	NotFound  int `json:"notFound"`
	Errored   int `json:"errored"`
}

func (r RefreshResult) Succeeded() int { return r.Updated + r.NotFound }

type RecalcResult struct {
	Processed    int                     `json:"processed"`
	Changed      int                     `json:"changed"`
	Errored      int                     `json:"errored"`
	Distribution map[popularity.Tier]int `json:"distribution"`
}

// RefreshMissing looks up venues that have no Google source yet. A miss is
// counted, not fatal. delay is waited between lookups.
func (s *RatingsService) RefreshMissing(ctx context.Context, delay time.Duration) (RefreshResult, error) {
	if s.lookup == nil {
		return RefreshResult{}, errors.New("ratings: no rating lookup configured")
	}
	venues, err := s.venues.ListVenues(ctx, domain.VenuesQuery{})
	if err != nil {
		return RefreshResult{}, classify("ratings.refresh", "", err)
	}

	var res RefreshResult
	first := true
	for _, v := range venues {
		if v.Google.Rating != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !first {
			if err := s.sleep(ctx, delay); err != nil {
				return res, err
			}
		}
		first = false
		res.Processed++

		err := s.refreshOne(ctx, v)
		switch {
		case err == nil:
			res.Updated++
			log.Info().Str("venue_id", v.ID).Str("venue", v.Name).Msg("rating refreshed")
		case errors.Is(err, domain.ErrNotFound):
			res.NotFound++
			log.Info().Str("venue_id", v.ID).Str("venue", v.Name).Msg("no rating match")
		default:
			res.Errored++
			log.Warn().Err(err).Str("venue_id", v.ID).Str("venue", v.Name).Msg("rating refresh failed")
		}
	}
	log.Info().
		Int("processed", res.Processed).
		Int("updated", res.Updated).
		Int("not_found", res.NotFound).
		Int("errored", res.Errored).
		Msg("rating refresh finished")
	return res, nil
}

func (s *RatingsService) refreshOne(ctx context.Context, v domain.Venue) error {
	m, err := s.lookup.Search(ctx, v.Name, v.Address)
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err != nil {
		return classify("ratings.lookup", v.ID, err)
	}
	google := domain.SourceRating{PlaceID: &m.PlaceID, Rating: m.Rating, Count: m.ReviewCount}
	if err := (popularity.Source{Rating: google.Rating, Count: google.Count}).Validate(); err != nil {
		return classify("ratings.lookup", v.ID, err)
	}
	if err := s.venues.UpdateSources(ctx, v.ID, v.Naver, google); err != nil {
		return classify("ratings.store", v.ID, err)
	}
	if _, err := rescore(ctx, s.venues, v.ID); err != nil {
		return classify("ratings.rescore", v.ID, err)
	}
	invalidateVenue(ctx, s.cache, v.ID, true)
	return nil
}

// RecalculateAll recomputes every stored score from its sources and reports
// how venues spread over the tiers afterwards.
func (s *RatingsService) RecalculateAll(ctx context.Context) (RecalcResult, error) {
	venues, err := s.venues.ListVenues(ctx, domain.VenuesQuery{})
	if err != nil {
		return RecalcResult{}, classify("ratings.recalc", "", err)
	}

	res := RecalcResult{}
	scores := make([]float64, 0, len(venues))
	for _, v := range venues {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Processed++
		src := sourcesOf(v)
		if err := validSources(src); err != nil {
			res.Errored++
			scores = append(scores, v.PopularityScore)
			log.Warn().Err(err).Str("venue_id", v.ID).Msg("invalid source data; score left unchanged")
			continue
		}
		score := popularity.ComputeScore(src)
		if score != v.PopularityScore {
			if err := s.venues.UpdatePopularityScore(ctx, v.ID, score); err != nil {
				res.Errored++
				scores = append(scores, v.PopularityScore)
				log.Warn().Err(err).Str("venue_id", v.ID).Msg("score update failed")
				continue
			}
			res.Changed++
			invalidateVenue(ctx, s.cache, v.ID, false)
		}
		scores = append(scores, score)
	}
	if res.Changed > 0 && s.cache != nil {
		_ = s.cache.DelPrefix(ctx, venueListPrefix)
	}
	res.Distribution = popularity.Distribution(scores)

	ev := log.Info().Int("processed", res.Processed).Int("changed", res.Changed).Int("errored", res.Errored)
	for _, t := range popularity.Tiers() {
		ev = ev.Int(string(t.Tier), res.Distribution[t.Tier])
	}
	ev.Msg("score recalculation finished")
	return res, nil
}

func validSources(src [2]popularity.Source) error {
	for _, s := range src {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
