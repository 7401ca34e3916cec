package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"venue_reputation/internal/domain"
	"venue_reputation/internal/validation"
)

// DashboardService is the owner-facing review view plus review responses.
type DashboardService struct {
	reviews   domain.ReviewRepository
	responses domain.ResponseRepository
	guard     *OwnershipGuard
	cache     domain.Cache
	cacheTTL  time.Duration
	now       func() time.Time
	newID     func() string
}

func NewDashboardService(r domain.ReviewRepository, rr domain.ResponseRepository, g *OwnershipGuard, c domain.Cache, ttl time.Duration) *DashboardService {
	return &DashboardService{
		reviews:   r,
		responses: rr,
		guard:     g,
		cache:     c,
		cacheTTL:  ttl,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *DashboardService) ReviewsWithResponses(ctx context.Context, userID, venueID string) ([]OwnerReviewView, error) {
	if err := s.guard.Authorize(ctx, "dashboard.reviews", userID, venueID); err != nil {
		return nil, err
	}
	rows, err := s.reviews.ListReviewsWithResponses(ctx, venueID)
	if err != nil {
		return nil, classify("dashboard.reviews", venueID, err)
	}
	return mapOwnerReviews(rows), nil
}

// PublicReviews is the unauthenticated variant: response text and time only.
func (s *DashboardService) PublicReviews(ctx context.Context, venueID string) ([]PublicReviewView, error) {
	return readThrough(ctx, s.cache, s.cacheTTL, venueReviewsKey(venueID), func() ([]PublicReviewView, error) {
		rows, err := s.reviews.ListReviewsWithResponses(ctx, venueID)
		if err != nil {
			return nil, classify("reviews.public", venueID, err)
		}
		return mapPublicReviews(rows), nil
	})
}

func (s *DashboardService) Stats(ctx context.Context, userID, venueID string) (DashboardStats, error) {
	if err := s.guard.Authorize(ctx, "dashboard.stats", userID, venueID); err != nil {
		return DashboardStats{}, err
	}
	rs, err := s.reviews.ListReviews(ctx, venueID, 0)
	if err != nil {
		return DashboardStats{}, classify("dashboard.stats", venueID, err)
	}
	return ComputeStats(rs), nil
}

// CreateResponse answers a review. A second response to the same review is
// ErrConflict; the unique key on review_id backs the pre-check.
func (s *DashboardService) CreateResponse(ctx context.Context, userID string, req CreateResponseRequest) (ResponseView, error) {
	if userID == "" {
		return ResponseView{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return ResponseView{}, err
	}
	if err := s.guard.Authorize(ctx, "response.create", userID, req.VenueID); err != nil {
		return ResponseView{}, err
	}
	rv, err := s.reviews.GetReview(ctx, req.ReviewID)
	if err != nil {
		return ResponseView{}, classify("response.create", req.VenueID, err)
	}
	if rv.VenueID != req.VenueID {
		return ResponseView{}, domain.ErrNotFound
	}
	switch _, err := s.responses.GetResponseByReview(ctx, req.ReviewID); {
	case err == nil:
		return ResponseView{}, domain.ErrConflict
	case !errors.Is(err, domain.ErrNotFound):
		return ResponseView{}, classify("response.create", req.VenueID, err)
	}

	resp := domain.ReviewResponse{
		ID:          s.newID(),
		ReviewID:    req.ReviewID,
		VenueID:     req.VenueID,
		OwnerUserID: userID,
		Response:    strings.TrimSpace(req.Response),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.responses.CreateResponse(ctx, resp); err != nil {
		return ResponseView{}, classify("response.create", req.VenueID, err)
	}
	invalidateVenue(ctx, s.cache, req.VenueID, false)
	return MapResponse(resp), nil
}

func (s *DashboardService) UpdateResponse(ctx context.Context, userID, id string, req UpdateResponseRequest) (ResponseView, error) {
	if userID == "" {
		return ResponseView{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return ResponseView{}, err
	}
	resp, err := s.scopedResponse(ctx, "response.update", userID, id, req.VenueID)
	if err != nil {
		return ResponseView{}, err
	}
	now := s.now().UTC()
	resp.Response = strings.TrimSpace(req.Response)
	resp.UpdatedAt = &now
	if err := s.responses.UpdateResponse(ctx, resp); err != nil {
		return ResponseView{}, classify("response.update", req.VenueID, err)
	}
	invalidateVenue(ctx, s.cache, req.VenueID, false)
	return MapResponse(resp), nil
}

func (s *DashboardService) DeleteResponse(ctx context.Context, userID, id string, ref VenueRef) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if err := validation.Struct(ref); err != nil {
		return err
	}
	if _, err := s.scopedResponse(ctx, "response.delete", userID, id, ref.VenueID); err != nil {
		return err
	}
	if err := s.responses.DeleteResponse(ctx, id); err != nil {
		return classify("response.delete", ref.VenueID, err)
	}
	invalidateVenue(ctx, s.cache, ref.VenueID, false)
	return nil
}

// scopedResponse loads a response for mutation. A missing row, a venue
// mismatch and a failed ownership check all come back as ErrNotFound.
func (s *DashboardService) scopedResponse(ctx context.Context, op, userID, id, venueID string) (domain.ReviewResponse, error) {
	if err := s.guard.AuthorizeScoped(ctx, op, userID, venueID); err != nil {
		return domain.ReviewResponse{}, err
	}
	resp, err := s.responses.GetResponse(ctx, id)
	if err != nil {
		return domain.ReviewResponse{}, classify(op, venueID, err)
	}
	if resp.VenueID != venueID {
		return domain.ReviewResponse{}, domain.ErrNotFound
	}
	return resp, nil
}
