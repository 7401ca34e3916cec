package app

import (
	"fmt"
	"strings"

	"venue_reputation/internal/domain"
)

// promptReviewLimit caps how many recent native reviews go into a prompt.
const promptReviewLimit = 20

var bestForCategories = []string{
	"First-time Korean food experience",
	"Traditional Korean dining",
	"Business lunch/dinner",
	"Family gathering",
	"Date night",
	"Solo dining",
	"Tourist must-visit",
	"Local favorite",
	"Special occasion",
	"Quick meal",
	"Late night dining",
	"Vegetarian/vegan options",
	"Budget-friendly",
	"Luxury dining",
}

// BuildInsightPrompt asks for all eight bilingual fields in one JSON object.
func BuildInsightPrompt(v domain.Venue, menus []domain.Menu, reviews []domain.Review) string {
	var b strings.Builder
	b.WriteString("You are a Korean food expert and travel guide. Based on the following restaurant information, ")
	b.WriteString("generate insights in both Korean and English.\n\n")

	fmt.Fprintf(&b, "Restaurant Name: %s", v.Name)
	if v.NameEn != "" {
		fmt.Fprintf(&b, " (%s)", v.NameEn)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Description: %s\n", firstNonEmpty(v.Description, v.DescriptionEn))
	fmt.Fprintf(&b, "Cuisine: %s\n", v.Cuisine)
	fmt.Fprintf(&b, "District: %s\n", v.District)
	if v.PriceRange > 0 {
		fmt.Fprintf(&b, "Price Range: %s (%d out of 4)\n", strings.Repeat("₩", v.PriceRange), v.PriceRange)
	}

	b.WriteString("\nMenu Items:\n")
	if len(menus) == 0 {
		b.WriteString("- (no menu listed)\n")
	}
	for _, m := range menus {
		fmt.Fprintf(&b, "- %s (%s원)", m.Name, thousands(m.Price))
		if m.Description != "" {
			fmt.Fprintf(&b, ": %s", m.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nCustomer Reviews:\n")
	if len(reviews) == 0 {
		b.WriteString("- (no reviews yet)\n")
	}
	for i, r := range reviews {
		if i == promptReviewLimit {
			break
		}
		author := r.UserName
		if author == "" {
			author = "Anonymous"
		}
		fmt.Fprintf(&b, "- %d⭐ by %s: %q\n", r.Rating, author, r.Comment)
	}

	b.WriteString(`
Please provide the following insights in JSON format:

{
  "reviewInsights": "A 2-3 sentence summary of customer reviews highlighting common themes, praise, and any concerns (in Korean)",
  "reviewInsightsEn": "The same summary in English",
  "bestFor": "Comma-separated list of 3-4 most relevant dining situations (in Korean)",
  "bestForEn": "Comma-separated list of 3-4 most relevant dining situations (in English)",
  "culturalTips": "Cultural etiquette and dining tips specific to this restaurant (in Korean, 2-3 sentences)",
  "culturalTipsEn": "Cultural etiquette and dining tips specific to this restaurant (in English, 2-3 sentences)",
  "firstTimerTips": "Essential tips for first-time visitors: what to order, when to visit, how to navigate (in Korean, 2-3 sentences)",
  "firstTimerTipsEn": "Essential tips for first-time visitors: what to order, when to visit, how to navigate (in English, 2-3 sentences)"
}

For "bestFor", choose 3-4 of these categories:
`)
	for _, c := range bestForCategories {
		fmt.Fprintf(&b, "- %q\n", c)
	}
	b.WriteString("\nReturn ONLY the JSON object, no additional text.")
	return b.String()
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// thousands formats n with comma separators, e.g. 12000 -> 12,000.
func thousands(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
