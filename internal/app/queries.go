package app

import (
	"context"
	"time"

	"venue_reputation/internal/domain"
)

type QueryService struct {
	repo     domain.VenueRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.VenueRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetVenue(ctx context.Context, id string) (VenueView, error) {
	return readThrough(ctx, s.cache, s.cacheTTL, venueKey(id), func() (VenueView, error) {
		v, err := s.repo.GetVenue(ctx, id)
		if err != nil {
			return VenueView{}, classify("venue.get", id, err)
		}
		return MapVenue(v), nil
	})
}

// ListVenues is ordered by popularity score, best first.
func (s *QueryService) ListVenues(ctx context.Context, q domain.VenuesQuery) ([]VenueView, error) {
	return readThrough(ctx, s.cache, s.cacheTTL, venueListKey(q), func() ([]VenueView, error) {
		vs, err := s.repo.ListVenues(ctx, q)
		if err != nil {
			return nil, classify("venue.list", "", err)
		}
		return MapVenues(vs), nil
	})
}
