package domain

import "context"

type VenueRepository interface {
	GetVenue(ctx context.Context, id string) (Venue, error)
	ListVenues(ctx context.Context, q VenuesQuery) ([]Venue, error)
	UpdateSources(ctx context.Context, id string, naver, google SourceRating) error
	UpdatePopularityScore(ctx context.Context, id string, score float64) error
	// RefreshNativeAggregate recomputes rating/review_count from the reviews
	// table and returns what was stored.
	RefreshNativeAggregate(ctx context.Context, id string) (NativeAggregate, error)
}

type OwnerRepository interface {
	IsOwner(ctx context.Context, userID, venueID string) (bool, error)
	CreateOwner(ctx context.Context, o Owner) error
	ListOwnedVenues(ctx context.Context, userID string) ([]Venue, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, r Review) error
	GetReview(ctx context.Context, id string) (Review, error)
	UpdateReview(ctx context.Context, r Review) error
	DeleteReview(ctx context.Context, id string) error
	// ListReviews returns newest first; limit <= 0 means all.
	ListReviews(ctx context.Context, venueID string, limit int) ([]Review, error)
	ListReviewsWithResponses(ctx context.Context, venueID string) ([]ReviewWithResponse, error)
}

type ResponseRepository interface {
	// CreateResponse returns ErrConflict when the review already has a response.
	CreateResponse(ctx context.Context, r ReviewResponse) error
	GetResponse(ctx context.Context, id string) (ReviewResponse, error)
	GetResponseByReview(ctx context.Context, reviewID string) (ReviewResponse, error)
	UpdateResponse(ctx context.Context, r ReviewResponse) error
	DeleteResponse(ctx context.Context, id string) error
}

type InsightRepository interface {
	GetInsight(ctx context.Context, venueID string) (Insight, error)
	// InsertInsightIfAbsent never overwrites; it returns the stored row and
	// whether this call created it.
	InsertInsightIfAbsent(ctx context.Context, in Insight) (Insight, bool, error)
	UpsertInsight(ctx context.Context, in Insight) (Insight, error)
}

type PromotionRepository interface {
	CreatePromotion(ctx context.Context, p Promotion) error
	GetPromotion(ctx context.Context, id string) (Promotion, error)
	UpdatePromotion(ctx context.Context, p Promotion) error
	DeletePromotion(ctx context.Context, id string) error
	ListPromotions(ctx context.Context, venueID string) ([]Promotion, error)
}

type MenuRepository interface {
	CreateMenu(ctx context.Context, m Menu) error
	GetMenu(ctx context.Context, id string) (Menu, error)
	UpdateMenu(ctx context.Context, m Menu) error
	DeleteMenu(ctx context.Context, id string) error
	ListMenus(ctx context.Context, venueID string) ([]Menu, error)
}

type ImageRepository interface {
	CreateImage(ctx context.Context, img VenueImage) error
	GetImage(ctx context.Context, id string) (VenueImage, error)
	UpdateImageOrder(ctx context.Context, id string, order int) error
	DeleteImage(ctx context.Context, id string) error
	ListImages(ctx context.Context, venueID string) ([]VenueImage, error)
}

// ContentRepository groups the venue-scoped owner-managed records.
type ContentRepository interface {
	PromotionRepository
	MenuRepository
	ImageRepository
}

// Store is everything the MySQL adapter implements.
type Store interface {
	VenueRepository
	OwnerRepository
	ReviewRepository
	ResponseRepository
	InsightRepository
	ContentRepository
}

// TextGenerator is the external text-generation collaborator. Output is free
// form and must be parsed defensively.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type PlaceMatch struct {
	PlaceID     string
	Rating      *float64
	ReviewCount *int
}

// RatingLookup is the external rating provider. Search returns ErrNotFound
// when the provider has no match.
type RatingLookup interface {
	Search(ctx context.Context, name, address string) (PlaceMatch, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}
