package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountAmount     DiscountType = "amount"
	DiscountSpecial    DiscountType = "special"
)

type Promotion struct {
	ID            string
	VenueID       string
	Title         string
	TitleEn       string
	Description   string
	DescriptionEn string
	DiscountType  DiscountType
	DiscountValue *float64
	StartDate     time.Time
	EndDate       time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// ActiveAt reports whether the promotion is switched on and its window contains t.
func (p Promotion) ActiveAt(t time.Time) bool {
	return p.IsActive && !t.Before(p.StartDate) && !t.After(p.EndDate)
}

type Menu struct {
	ID            string
	VenueID       string
	Name          string
	NameEn        string
	Description   string
	Price         int
	IsPopular     bool
	IsRecommended bool
	DisplayOrder  int
	CreatedAt     time.Time
}

type VenueImage struct {
	ID           string
	VenueID      string
	URL          string
	Caption      string
	DisplayOrder int
	CreatedAt    time.Time
}
