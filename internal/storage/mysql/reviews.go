package mysql

import (
	"context"
	"database/sql"
	"time"

	"venue_reputation/internal/domain"
)

func scanReview(s scanner) (domain.Review, error) {
	var rv domain.Review
	err := s.Scan(&rv.ID, &rv.VenueID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	return rv, err
}

func scanResponse(s scanner) (domain.ReviewResponse, error) {
	var rr domain.ReviewResponse
	var updated sql.NullTime
	if err := s.Scan(&rr.ID, &rr.ReviewID, &rr.VenueID, &rr.OwnerUserID, &rr.Response, &rr.CreatedAt, &updated); err != nil {
		return domain.ReviewResponse{}, err
	}
	if updated.Valid {
		t := updated.Time
		rr.UpdatedAt = &t
	}
	return rr, nil
}

func (r *Repo) CreateReview(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.ID, rv.VenueID, rv.UserID, rv.UserName, rv.Rating, rv.Comment, rv.CreatedAt.UTC(),
	)
	return translate(err)
}

func (r *Repo) GetReview(ctx context.Context, id string) (domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, getReviewSQL, id))
	if err != nil {
		return domain.Review{}, translate(err)
	}
	return rv, nil
}

func (r *Repo) UpdateReview(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx, updateReviewSQL, rv.Rating, rv.Comment, rv.ID)
	return translate(err)
}

func (r *Repo) DeleteReview(ctx context.Context, id string) error {
	return mustAffect(r.db.ExecContext(ctx, deleteReviewSQL, id))
}

func (r *Repo) ListReviews(ctx context.Context, venueID string, limit int) ([]domain.Review, error) {
	q, args := listReviewsSQL, []any{venueID}
	if limit > 0 {
		q += "LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) ListReviewsWithResponses(ctx context.Context, venueID string) ([]domain.ReviewWithResponse, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsWithResponsesSQL, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReviewWithResponse
	for rows.Next() {
		var row domain.ReviewWithResponse
		var (
			respID, owner, text sql.NullString
			created, updated    sql.NullTime
		)
		rv := &row.Review
		if err := rows.Scan(
			&rv.ID, &rv.VenueID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt,
			&respID, &owner, &text, &created, &updated,
		); err != nil {
			return nil, err
		}
		if respID.Valid {
			resp := &domain.ReviewResponse{
				ID:          respID.String,
				ReviewID:    rv.ID,
				VenueID:     rv.VenueID,
				OwnerUserID: owner.String,
				Response:    text.String,
				CreatedAt:   created.Time,
			}
			if updated.Valid {
				t := updated.Time
				resp.UpdatedAt = &t
			}
			row.Response = resp
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repo) CreateResponse(ctx context.Context, rr domain.ReviewResponse) error {
	_, err := r.db.ExecContext(ctx, insertResponseSQL,
		rr.ID, rr.ReviewID, rr.VenueID, rr.OwnerUserID, rr.Response, rr.CreatedAt.UTC(),
	)
	return translate(err)
}

func (r *Repo) GetResponse(ctx context.Context, id string) (domain.ReviewResponse, error) {
	rr, err := scanResponse(r.db.QueryRowContext(ctx, getResponseSQL, id))
	if err != nil {
		return domain.ReviewResponse{}, translate(err)
	}
	return rr, nil
}

func (r *Repo) GetResponseByReview(ctx context.Context, reviewID string) (domain.ReviewResponse, error) {
	rr, err := scanResponse(r.db.QueryRowContext(ctx, getResponseByReviewSQL, reviewID))
	if err != nil {
		return domain.ReviewResponse{}, translate(err)
	}
	return rr, nil
}

func (r *Repo) UpdateResponse(ctx context.Context, rr domain.ReviewResponse) error {
	updated := time.Now().UTC()
	if rr.UpdatedAt != nil {
		updated = rr.UpdatedAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, updateResponseSQL, rr.Response, updated, rr.ID)
	return translate(err)
}

func (r *Repo) DeleteResponse(ctx context.Context, id string) error {
	return mustAffect(r.db.ExecContext(ctx, deleteResponseSQL, id))
}
