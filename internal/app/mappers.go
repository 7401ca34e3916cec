package app

import (
	"time"

	"venue_reputation/internal/domain"
	"venue_reputation/internal/popularity"
)

/********** response views (the JSON surface) **********/

type SourceView struct {
	PlaceID     *string  `json:"placeId,omitempty"`
	Rating      *float64 `json:"rating"`
	ReviewCount *int     `json:"reviewCount"`
}

type VenueView struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	NameEn          string              `json:"nameEn"`
	Category        string              `json:"category"`
	Cuisine         string              `json:"cuisine"`
	District        string              `json:"district"`
	Address         string              `json:"address"`
	Description     string              `json:"description,omitempty"`
	DescriptionEn   string              `json:"descriptionEn,omitempty"`
	PriceRange      int                 `json:"priceRange"`
	Rating          float64             `json:"rating"`
	ReviewCount     int                 `json:"reviewCount"`
	Naver           *SourceView         `json:"naver,omitempty"`
	Google          *SourceView         `json:"google,omitempty"`
	PopularityScore float64             `json:"popularityScore"`
	Tier            popularity.TierInfo `json:"tier"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

type ReviewView struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venueId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ResponseView is the owner-facing response, including who wrote it.
type ResponseView struct {
	ID          string     `json:"id"`
	ReviewID    string     `json:"reviewId"`
	VenueID     string     `json:"venueId"`
	OwnerUserID string     `json:"ownerUserId"`
	Response    string     `json:"response"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// PublicResponseView drops the responder's identity.
type PublicResponseView struct {
	Response  string     `json:"response"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type OwnerReviewView struct {
	ReviewView
	Response *ResponseView `json:"response"`
}

type PublicReviewView struct {
	ReviewView
	Response *PublicResponseView `json:"response"`
}

type InsightView struct {
	ID      string `json:"id"`
	VenueID string `json:"venueId"`
	domain.InsightFields
	LastUpdated time.Time `json:"lastUpdated"`
}

type PromotionView struct {
	ID            string    `json:"id"`
	VenueID       string    `json:"venueId"`
	Title         string    `json:"title"`
	TitleEn       string    `json:"titleEn"`
	Description   string    `json:"description,omitempty"`
	DescriptionEn string    `json:"descriptionEn,omitempty"`
	DiscountType  string    `json:"discountType"`
	DiscountValue *float64  `json:"discountValue,omitempty"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

type MenuView struct {
	ID            string    `json:"id"`
	VenueID       string    `json:"venueId"`
	Name          string    `json:"name"`
	NameEn        string    `json:"nameEn"`
	Description   string    `json:"description,omitempty"`
	Price         int       `json:"price"`
	IsPopular     bool      `json:"isPopular"`
	IsRecommended bool      `json:"isRecommended"`
	DisplayOrder  int       `json:"displayOrder"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ImageView struct {
	ID           string    `json:"id"`
	VenueID      string    `json:"venueId"`
	URL          string    `json:"url"`
	Caption      string    `json:"caption"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

/********** mappers **********/

func mapSource(s domain.SourceRating) *SourceView {
	if s.PlaceID == nil && s.Rating == nil && s.Count == nil {
		return nil
	}
	return &SourceView{PlaceID: s.PlaceID, Rating: s.Rating, ReviewCount: s.Count}
}

// MapVenue derives the tier from the stored score at read time.
func MapVenue(v domain.Venue) VenueView {
	return VenueView{
		ID:              v.ID,
		Name:            v.Name,
		NameEn:          v.NameEn,
		Category:        v.Category,
		Cuisine:         v.Cuisine,
		District:        v.District,
		Address:         v.Address,
		Description:     v.Description,
		DescriptionEn:   v.DescriptionEn,
		PriceRange:      v.PriceRange,
		Rating:          v.Rating,
		ReviewCount:     v.ReviewCount,
		Naver:           mapSource(v.Naver),
		Google:          mapSource(v.Google),
		PopularityScore: v.PopularityScore,
		Tier:            popularity.Classify(v.PopularityScore),
		UpdatedAt:       v.UpdatedAt,
	}
}

func MapVenues(vs []domain.Venue) []VenueView {
	out := make([]VenueView, 0, len(vs))
	for _, v := range vs {
		out = append(out, MapVenue(v))
	}
	return out
}

func MapReview(r domain.Review) ReviewView {
	return ReviewView{
		ID:        r.ID,
		VenueID:   r.VenueID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func MapResponse(r domain.ReviewResponse) ResponseView {
	return ResponseView{
		ID:          r.ID,
		ReviewID:    r.ReviewID,
		VenueID:     r.VenueID,
		OwnerUserID: r.OwnerUserID,
		Response:    r.Response,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func mapOwnerReviews(rows []domain.ReviewWithResponse) []OwnerReviewView {
	out := make([]OwnerReviewView, 0, len(rows))
	for _, row := range rows {
		v := OwnerReviewView{ReviewView: MapReview(row.Review)}
		if row.Response != nil {
			rv := MapResponse(*row.Response)
			v.Response = &rv
		}
		out = append(out, v)
	}
	return out
}

func mapPublicReviews(rows []domain.ReviewWithResponse) []PublicReviewView {
	out := make([]PublicReviewView, 0, len(rows))
	for _, row := range rows {
		v := PublicReviewView{ReviewView: MapReview(row.Review)}
		if r := row.Response; r != nil {
			v.Response = &PublicResponseView{Response: r.Response, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
		}
		out = append(out, v)
	}
	return out
}

func MapInsight(in domain.Insight) InsightView {
	return InsightView{ID: in.ID, VenueID: in.VenueID, InsightFields: in.InsightFields, LastUpdated: in.LastUpdated}
}

func MapPromotion(p domain.Promotion) PromotionView {
	return PromotionView{
		ID:            p.ID,
		VenueID:       p.VenueID,
		Title:         p.Title,
		TitleEn:       p.TitleEn,
		Description:   p.Description,
		DescriptionEn: p.DescriptionEn,
		DiscountType:  string(p.DiscountType),
		DiscountValue: p.DiscountValue,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
}

func MapMenu(m domain.Menu) MenuView {
	return MenuView{
		ID:            m.ID,
		VenueID:       m.VenueID,
		Name:          m.Name,
		NameEn:        m.NameEn,
		Description:   m.Description,
		Price:         m.Price,
		IsPopular:     m.IsPopular,
		IsRecommended: m.IsRecommended,
		DisplayOrder:  m.DisplayOrder,
		CreatedAt:     m.CreatedAt,
	}
}

func MapImage(img domain.VenueImage) ImageView {
	return ImageView{
		ID:           img.ID,
		VenueID:      img.VenueID,
		URL:          img.URL,
		Caption:      img.Caption,
		DisplayOrder: img.DisplayOrder,
		CreatedAt:    img.CreatedAt,
	}
}

func mapAll[T, V any](in []T, f func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, x := range in {
		out = append(out, f(x))
	}
	return out
}
