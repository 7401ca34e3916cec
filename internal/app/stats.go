package app

import (
	"math"
	"sort"

	"venue_reputation/internal/domain"
)

const recentReviewLimit = 10

type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type MonthlyCount struct {
	Month string `json:"month"` // YYYY-MM, UTC
	Count int    `json:"count"`
}

type DashboardStats struct {
	TotalReviews    int            `json:"totalReviews"`
	AverageRating   float64        `json:"averageRating"`
	RatingHistogram []RatingBucket `json:"ratingHistogram"`
	MonthlyCounts   []MonthlyCount `json:"monthlyCounts"`
	RecentReviews   []ReviewView   `json:"recentReviews"`
}

// ComputeStats aggregates a venue's reviews. The histogram always has the
// five buckets 1..5, months are newest first, and an empty input gives zeros.
func ComputeStats(reviews []domain.Review) DashboardStats {
	st := DashboardStats{
		RatingHistogram: make([]RatingBucket, 5),
		MonthlyCounts:   []MonthlyCount{},
		RecentReviews:   []ReviewView{},
	}
	for i := range st.RatingHistogram {
		st.RatingHistogram[i].Rating = i + 1
	}
	if len(reviews) == 0 {
		return st
	}

	sorted := make([]domain.Review, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	sum := 0
	months := map[string]int{}
	for _, r := range sorted {
		sum += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			st.RatingHistogram[r.Rating-1].Count++
		}
		months[r.CreatedAt.UTC().Format("2006-01")]++
	}
	st.TotalReviews = len(sorted)
	st.AverageRating = math.Round(float64(sum)/float64(len(sorted))*10) / 10

	for m, n := range months {
		st.MonthlyCounts = append(st.MonthlyCounts, MonthlyCount{Month: m, Count: n})
	}
	sort.Slice(st.MonthlyCounts, func(i, j int) bool {
		return st.MonthlyCounts[i].Month > st.MonthlyCounts[j].Month
	})

	for i := 0; i < len(sorted) && i < recentReviewLimit; i++ {
		st.RecentReviews = append(st.RecentReviews, MapReview(sorted[i]))
	}
	return st
}
