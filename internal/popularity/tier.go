package popularity

type Tier string

const (
	TierLegendary     Tier = "legendary"
	TierHighlyPopular Tier = "highly_popular"
	TierPopular       Tier = "popular"
	TierModerate      Tier = "moderate"
	TierAverage       Tier = "average"
	TierLow           Tier = "low"
)

type TierInfo struct {
	Tier    Tier   `json:"tier"`
	LabelKo string `json:"labelKo"`
	LabelEn string `json:"labelEn"`
	Color   string `json:"color"`
}

type band struct {
	min  float64
	info TierInfo
}

// descending; first band whose lower bound the score reaches wins
var bands = []band{
	{4.5, TierInfo{TierLegendary, "전설의 맛집", "Legendary", "#22c55e"}},
	{4.0, TierInfo{TierHighlyPopular, "대박 맛집", "Highly Popular", "#3b82f6"}},
	{3.5, TierInfo{TierPopular, "인기 맛집", "Popular", "#eab308"}},
	{3.0, TierInfo{TierModerate, "괜찮은 곳", "Moderate", "#f97316"}},
	{2.0, TierInfo{TierAverage, "평범한 곳", "Average", "#6b7280"}},
}

var lowTier = TierInfo{TierLow, "신규/데이터 부족", "New/Limited Data", "#9ca3af"}

// Classify maps a score to its tier. Lower bounds are inclusive.
// Tiers are never stored; always derive them from the current score.
func Classify(score float64) TierInfo {
	for _, b := range bands {
		if score >= b.min {
			return b.info
		}
	}
	return lowTier
}

// Tiers lists every tier from best to worst.
func Tiers() []TierInfo {
	out := make([]TierInfo, 0, len(bands)+1)
	for _, b := range bands {
		out = append(out, b.info)
	}
	return append(out, lowTier)
}

// Distribution counts scores per tier. Every tier is present in the result.
func Distribution(scores []float64) map[Tier]int {
	out := make(map[Tier]int, len(bands)+1)
	for _, t := range Tiers() {
		out[t.Tier] = 0
	}
	for _, s := range scores {
		out[Classify(s).Tier]++
	}
	return out
}
