package mysql

import (
	"context"
	"database/sql"
	"strings"

	"venue_reputation/internal/domain"
)

func scanVenue(s scanner) (domain.Venue, error) {
	var v domain.Venue
	var desc, descEn sql.NullString
	var naverID, googleID sql.NullString
	var naverRating, googleRating sql.NullFloat64
	var naverCount, googleCount sql.NullInt64
	if err := s.Scan(
		&v.ID, &v.Name, &v.NameEn, &v.Category, &v.Cuisine, &v.District, &v.Address,
		&desc, &descEn, &v.PriceRange,
		&v.Rating, &v.ReviewCount,
		&naverID, &naverRating, &naverCount,
		&googleID, &googleRating, &googleCount,
		&v.PopularityScore, &v.UpdatedAt,
	); err != nil {
		return domain.Venue{}, err
	}
	v.Description = desc.String
	v.DescriptionEn = descEn.String
	v.Naver = domain.SourceRating{PlaceID: nullStr(naverID), Rating: nullF64(naverRating), Count: nullInt(naverCount)}
	v.Google = domain.SourceRating{PlaceID: nullStr(googleID), Rating: nullF64(googleRating), Count: nullInt(googleCount)}
	return v, nil
}

func scanVenues(rows *sql.Rows) ([]domain.Venue, error) {
	defer rows.Close()
	var out []domain.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repo) GetVenue(ctx context.Context, id string) (domain.Venue, error) {
	v, err := scanVenue(r.db.QueryRowContext(ctx, getVenueSQL, id))
	if err != nil {
		return domain.Venue{}, translate(err)
	}
	return v, nil
}

func (r *Repo) ListVenues(ctx context.Context, q domain.VenuesQuery) ([]domain.Venue, error) {
	var b strings.Builder
	b.WriteString(listVenuesPrefix)
	args := make([]any, 0, 3)
	if q.District != nil {
		b.WriteString("\n  AND v.district = ?")
		args = append(args, *q.District)
	}
	if q.Category != nil {
		b.WriteString("\n  AND v.category = ?")
		args = append(args, *q.Category)
	}
	b.WriteString(listVenuesOrder)
	if q.Limit > 0 {
		b.WriteString("\nLIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanVenues(rows)
}

func (r *Repo) UpdateSources(ctx context.Context, id string, naver, google domain.SourceRating) error {
	_, err := r.db.ExecContext(ctx, updateSourcesSQL,
		valStr(naver.PlaceID), valF64(naver.Rating), valInt(naver.Count),
		valStr(google.PlaceID), valF64(google.Rating), valInt(google.Count),
		id,
	)
	return translate(err)
}

func (r *Repo) UpdatePopularityScore(ctx context.Context, id string, score float64) error {
	_, err := r.db.ExecContext(ctx, updatePopularitySQL, score, id)
	return translate(err)
}

// RefreshNativeAggregate locks the venue row so concurrent refreshes for the
// same venue serialize and the last writer sees every committed review.
func (r *Repo) RefreshNativeAggregate(ctx context.Context, id string) (domain.NativeAggregate, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NativeAggregate{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	if err := tx.QueryRowContext(ctx, lockVenueSQL, id).Scan(&locked); err != nil {
		return domain.NativeAggregate{}, translate(err)
	}
	var agg domain.NativeAggregate
	if err := tx.QueryRowContext(ctx, nativeAggregateSQL, id).Scan(&agg.Average, &agg.Count); err != nil {
		return domain.NativeAggregate{}, err
	}
	if _, err := tx.ExecContext(ctx, updateNativeAggregateSQL, agg.Average, agg.Count, id); err != nil {
		return domain.NativeAggregate{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.NativeAggregate{}, err
	}
	return agg, nil
}

func (r *Repo) IsOwner(ctx context.Context, userID, venueID string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, isOwnerSQL, userID, venueID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) CreateOwner(ctx context.Context, o domain.Owner) error {
	role := o.Role
	if role == "" {
		role = "owner"
	}
	_, err := r.db.ExecContext(ctx, insertOwnerSQL, o.UserID, o.VenueID, role)
	return translate(err)
}

func (r *Repo) ListOwnedVenues(ctx context.Context, userID string) ([]domain.Venue, error) {
	rows, err := r.db.QueryContext(ctx, listOwnedVenuesSQL, userID)
	if err != nil {
		return nil, err
	}
	return scanVenues(rows)
}
