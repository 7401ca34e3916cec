package domain

import "time"

// SourceRating is one external provider's rating and review volume.
// Nil means the provider has no data for the venue.
type SourceRating struct {
	PlaceID *string
	Rating  *float64
	Count   *int
}

type Venue struct {
	ID            string
	Name          string
	NameEn        string
	Category      string
	Cuisine       string
	District      string
	Address       string
	Description   string
	DescriptionEn string
	PriceRange    int

	// native reviews
	Rating      float64
	ReviewCount int

	Naver  SourceRating
	Google SourceRating

	PopularityScore float64
	UpdatedAt       time.Time
}

type VenuesQuery struct {
	District *string
	Category *string
	Limit    int // <= 0 means no limit
}

type Owner struct {
	UserID    string
	VenueID   string
	Role      string
	CreatedAt time.Time
}
