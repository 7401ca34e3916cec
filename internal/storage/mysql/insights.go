package mysql

import (
	"context"

	"venue_reputation/internal/domain"
)

func scanInsight(s scanner) (domain.Insight, error) {
	var in domain.Insight
	f := &in.InsightFields
	err := s.Scan(
		&in.ID, &in.VenueID,
		&f.ReviewInsights, &f.ReviewInsightsEn,
		&f.BestFor, &f.BestForEn,
		&f.CulturalTips, &f.CulturalTipsEn,
		&f.FirstTimerTips, &f.FirstTimerTipsEn,
		&in.LastUpdated,
	)
	return in, err
}

func insightArgs(in domain.Insight) []any {
	f := in.InsightFields
	return []any{
		in.ID, in.VenueID,
		f.ReviewInsights, f.ReviewInsightsEn,
		f.BestFor, f.BestForEn,
		f.CulturalTips, f.CulturalTipsEn,
		f.FirstTimerTips, f.FirstTimerTipsEn,
		in.LastUpdated.UTC(),
	}
}

func (r *Repo) GetInsight(ctx context.Context, venueID string) (domain.Insight, error) {
	in, err := scanInsight(r.db.QueryRowContext(ctx, getInsightSQL, venueID))
	if err != nil {
		return domain.Insight{}, translate(err)
	}
	return in, nil
}

// InsertInsightIfAbsent relies on INSERT IGNORE against uq_insights_venue:
// zero affected rows means another writer got there first, and its row wins.
func (r *Repo) InsertInsightIfAbsent(ctx context.Context, in domain.Insight) (domain.Insight, bool, error) {
	res, err := r.db.ExecContext(ctx, insertInsightIgnoreSQL, insightArgs(in)...)
	if err != nil {
		return domain.Insight{}, false, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Insight{}, false, err
	}
	stored, err := r.GetInsight(ctx, in.VenueID)
	if err != nil {
		return domain.Insight{}, false, err
	}
	return stored, n > 0, nil
}

func (r *Repo) UpsertInsight(ctx context.Context, in domain.Insight) (domain.Insight, error) {
	if _, err := r.db.ExecContext(ctx, upsertInsightSQL, insightArgs(in)...); err != nil {
		return domain.Insight{}, translate(err)
	}
	return r.GetInsight(ctx, in.VenueID)
}
