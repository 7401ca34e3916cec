package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"venue_reputation/internal/domain"
	"venue_reputation/internal/validation"
)

// ReviewService handles end-user review writes. Every write is followed, in
// the same request, by a refresh of the venue's native aggregate and a
// popularity rescore, so a reader never sees the review without them.
type ReviewService struct {
	venues  domain.VenueRepository
	reviews domain.ReviewRepository
	cache   domain.Cache
	now     func() time.Time
	newID   func() string
}

func NewReviewService(v domain.VenueRepository, r domain.ReviewRepository, c domain.Cache) *ReviewService {
	return &ReviewService{
		venues:  v,
		reviews: r,
		cache:   c,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *ReviewService) Create(ctx context.Context, userID, userName string, req CreateReviewRequest) (domain.Review, error) {
	if userID == "" {
		return domain.Review{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return domain.Review{}, err
	}
	rv := domain.Review{
		ID:        s.newID(),
		VenueID:   req.VenueID,
		UserID:    userID,
		UserName:  userName,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: s.now().UTC(),
	}
	if err := s.reviews.CreateReview(ctx, rv); err != nil {
		return domain.Review{}, classify("review.create", req.VenueID, err)
	}
	if err := s.afterWrite(ctx, req.VenueID); err != nil {
		return domain.Review{}, err
	}
	return rv, nil
}

// Update is author-only; anyone else sees ErrNotFound.
func (s *ReviewService) Update(ctx context.Context, userID, id string, req UpdateReviewRequest) (domain.Review, error) {
	if userID == "" {
		return domain.Review{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return domain.Review{}, err
	}
	rv, err := s.authored(ctx, userID, id)
	if err != nil {
		return domain.Review{}, err
	}
	rv.Rating = req.Rating
	rv.Comment = strings.TrimSpace(req.Comment)
	if err := s.reviews.UpdateReview(ctx, rv); err != nil {
		return domain.Review{}, classify("review.update", rv.VenueID, err)
	}
	if err := s.afterWrite(ctx, rv.VenueID); err != nil {
		return domain.Review{}, err
	}
	return rv, nil
}

func (s *ReviewService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	rv, err := s.authored(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.reviews.DeleteReview(ctx, id); err != nil {
		return classify("review.delete", rv.VenueID, err)
	}
	return s.afterWrite(ctx, rv.VenueID)
}

func (s *ReviewService) authored(ctx context.Context, userID, id string) (domain.Review, error) {
	rv, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		return domain.Review{}, classify("review.get", "", err)
	}
	if rv.UserID != userID {
		return domain.Review{}, domain.ErrNotFound
	}
	return rv, nil
}

func (s *ReviewService) afterWrite(ctx context.Context, venueID string) error {
	if _, err := s.venues.RefreshNativeAggregate(ctx, venueID); err != nil {
		return classify("review.aggregate", venueID, err)
	}
	if _, err := rescore(ctx, s.venues, venueID); err != nil {
		return classify("review.rescore", venueID, err)
	}
	invalidateVenue(ctx, s.cache, venueID, true)
	return nil
}
