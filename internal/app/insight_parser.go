package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"venue_reputation/internal/domain"
)

var (
	codeFencePattern     = regexp.MustCompile("```(?:json|JSON)?")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// insightFieldNames in prompt order.
var insightFieldNames = []string{
	"reviewInsights", "reviewInsightsEn",
	"bestFor", "bestForEn",
	"culturalTips", "culturalTipsEn",
	"firstTimerTips", "firstTimerTipsEn",
}

// ParseInsightText extracts the first well-formed JSON object from generated
// text and requires all eight fields to be present and non-empty. It never
// returns a partial set: any failure is a *domain.ParseError.
func ParseInsightText(text string) (domain.InsightFields, error) {
	cleaned := codeFencePattern.ReplaceAllString(text, "")
	obj, ok := firstObject(cleaned)
	if !ok {
		// models sometimes emit trailing commas
		obj, ok = firstObject(trailingCommaPattern.ReplaceAllString(cleaned, "$1"))
	}
	if !ok {
		return domain.InsightFields{}, &domain.ParseError{Reason: "no JSON object found"}
	}

	vals := make(map[string]string, len(insightFieldNames))
	for _, name := range insightFieldNames {
		raw, present := obj[name]
		if !present {
			return domain.InsightFields{}, &domain.ParseError{Reason: "missing field " + name}
		}
		s, err := fieldText(raw)
		if err != nil {
			return domain.InsightFields{}, &domain.ParseError{Reason: fmt.Sprintf("field %s: %v", name, err)}
		}
		if strings.TrimSpace(s) == "" {
			return domain.InsightFields{}, &domain.ParseError{Reason: "empty field " + name}
		}
		vals[name] = strings.TrimSpace(s)
	}
	return domain.InsightFields{
		ReviewInsights:   vals["reviewInsights"],
		ReviewInsightsEn: vals["reviewInsightsEn"],
		BestFor:          vals["bestFor"],
		BestForEn:        vals["bestForEn"],
		CulturalTips:     vals["culturalTips"],
		CulturalTipsEn:   vals["culturalTipsEn"],
		FirstTimerTips:   vals["firstTimerTips"],
		FirstTimerTipsEn: vals["firstTimerTipsEn"],
	}, nil
}

// firstObject tries every '{' in order and returns the first position where
// a complete JSON object decodes.
func firstObject(s string) (map[string]json.RawMessage, bool) {
	for i := strings.IndexByte(s, '{'); i >= 0; {
		var obj map[string]json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&obj); err == nil {
			return obj, true
		}
		next := strings.IndexByte(s[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, false
}

// fieldText accepts a string, or a list of strings joined with ", "
// (bestFor is sometimes returned as an array).
func fieldText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", "), nil
	}
	return "", errors.New("not a string")
}
