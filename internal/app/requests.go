package app

import "time"

// Request contracts checked at the top of every mutation, before any
// ownership lookup or write.

type CreateReviewRequest struct {
	VenueID string `json:"venueId" validate:"required,max=64"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

type UpdateReviewRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

type CreateResponseRequest struct {
	VenueID  string `json:"venueId" validate:"required,max=64"`
	ReviewID string `json:"reviewId" validate:"required,max=64"`
	Response string `json:"response" validate:"required,max=2000"`
}

type UpdateResponseRequest struct {
	VenueID  string `json:"venueId" validate:"required,max=64"`
	Response string `json:"response" validate:"required,max=2000"`
}

// VenueRef carries the venue a delete is scoped to.
type VenueRef struct {
	VenueID string `json:"venueId" validate:"required,max=64"`
}

type PromotionRequest struct {
	VenueID       string    `json:"venueId" validate:"required,max=64"`
	Title         string    `json:"title" validate:"required,max=255"`
	TitleEn       string    `json:"titleEn" validate:"required,max=255"`
	Description   string    `json:"description" validate:"max=2000"`
	DescriptionEn string    `json:"descriptionEn" validate:"max=2000"`
	DiscountType  string    `json:"discountType" validate:"required,oneof=percentage amount special"`
	DiscountValue *float64  `json:"discountValue" validate:"omitempty,gte=0"`
	StartDate     time.Time `json:"startDate" validate:"required"`
	EndDate       time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	IsActive      *bool     `json:"isActive"`
}

type MenuRequest struct {
	VenueID       string `json:"venueId" validate:"required,max=64"`
	Name          string `json:"name" validate:"required,max=255"`
	NameEn        string `json:"nameEn" validate:"max=255"`
	Description   string `json:"description" validate:"max=2000"`
	Price         int    `json:"price" validate:"gte=0"`
	IsPopular     bool   `json:"isPopular"`
	IsRecommended bool   `json:"isRecommended"`
	DisplayOrder  int    `json:"displayOrder" validate:"gte=0"`
}

type ImageRequest struct {
	VenueID      string `json:"venueId" validate:"required,max=64"`
	URL          string `json:"url" validate:"required,url,max=1024"`
	Caption      string `json:"caption" validate:"max=255"`
	DisplayOrder int    `json:"displayOrder" validate:"gte=0"`
}

type ImageOrderRequest struct {
	VenueID      string `json:"venueId" validate:"required,max=64"`
	DisplayOrder int    `json:"displayOrder" validate:"gte=0"`
}

type InsightTriggerRequest struct {
	VenueID    string `json:"venueId" validate:"required,max=64"`
	Regenerate bool   `json:"regenerate"`
}

type GrantOwnershipRequest struct {
	UserID  string `json:"userId" validate:"required,max=128"`
	VenueID string `json:"venueId" validate:"required,max=64"`
	Role    string `json:"role" validate:"omitempty,oneof=owner manager"`
}
