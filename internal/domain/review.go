package domain

import "time"

type Review struct {
	ID        string
	VenueID   string
	UserID    string
	UserName  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type ReviewResponse struct {
	ID          string
	ReviewID    string
	VenueID     string
	OwnerUserID string
	Response    string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ReviewWithResponse is one row of the review/response left join.
type ReviewWithResponse struct {
	Review   Review
	Response *ReviewResponse
}

// NativeAggregate is the mean and count over a venue's own reviews.
type NativeAggregate struct {
	Average float64
	Count   int
}
