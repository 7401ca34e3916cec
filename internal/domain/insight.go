package domain

import "time"

// InsightFields are the eight bilingual narrative fields. All of them are
// present or none is persisted.
type InsightFields struct {
	ReviewInsights   string `json:"reviewInsights"`
	ReviewInsightsEn string `json:"reviewInsightsEn"`
	BestFor          string `json:"bestFor"`
	BestForEn        string `json:"bestForEn"`
	CulturalTips     string `json:"culturalTips"`
	CulturalTipsEn   string `json:"culturalTipsEn"`
	FirstTimerTips   string `json:"firstTimerTips"`
	FirstTimerTipsEn string `json:"firstTimerTipsEn"`
}

type Insight struct {
	ID      string
	VenueID string
	InsightFields
	LastUpdated time.Time
}
