package mysql

import (
	"context"
	"database/sql"

	"venue_reputation/internal/domain"
)

// ---------- promotions ----------

func scanPromotion(s scanner) (domain.Promotion, error) {
	var p domain.Promotion
	var desc, descEn sql.NullString
	var value sql.NullFloat64
	var discount string
	if err := s.Scan(
		&p.ID, &p.VenueID, &p.Title, &p.TitleEn, &desc, &descEn,
		&discount, &value, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt,
	); err != nil {
		return domain.Promotion{}, err
	}
	p.Description = desc.String
	p.DescriptionEn = descEn.String
	p.DiscountType = domain.DiscountType(discount)
	p.DiscountValue = nullF64(value)
	return p, nil
}

func (r *Repo) CreatePromotion(ctx context.Context, p domain.Promotion) error {
	_, err := r.db.ExecContext(ctx, insertPromotionSQL,
		p.ID, p.VenueID, p.Title, p.TitleEn, valText(p.Description), valText(p.DescriptionEn),
		string(p.DiscountType), valF64(p.DiscountValue),
		p.StartDate.UTC(), p.EndDate.UTC(), p.IsActive, p.CreatedAt.UTC(),
	)
	return translate(err)
}

func (r *Repo) GetPromotion(ctx context.Context, id string) (domain.Promotion, error) {
	p, err := scanPromotion(r.db.QueryRowContext(ctx, getPromotionSQL, id))
	if err != nil {
		return domain.Promotion{}, translate(err)
	}
	return p, nil
}

func (r *Repo) UpdatePromotion(ctx context.Context, p domain.Promotion) error {
	_, err := r.db.ExecContext(ctx, updatePromotionSQL,
		p.Title, p.TitleEn, valText(p.Description), valText(p.DescriptionEn),
		string(p.DiscountType), valF64(p.DiscountValue),
		p.StartDate.UTC(), p.EndDate.UTC(), p.IsActive,
		p.ID,
	)
	return translate(err)
}

func (r *Repo) DeletePromotion(ctx context.Context, id string) error {
	return mustAffect(r.db.ExecContext(ctx, deletePromotionSQL, id))
}

func (r *Repo) ListPromotions(ctx context.Context, venueID string) ([]domain.Promotion, error) {
	rows, err := r.db.QueryContext(ctx, listPromotionsSQL, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---------- menus ----------

func scanMenu(s scanner) (domain.Menu, error) {
	var m domain.Menu
	var desc sql.NullString
	if err := s.Scan(
		&m.ID, &m.VenueID, &m.Name, &m.NameEn, &desc, &m.Price,
		&m.IsPopular, &m.IsRecommended, &m.DisplayOrder, &m.CreatedAt,
	); err != nil {
		return domain.Menu{}, err
	}
	m.Description = desc.String
	return m, nil
}

func (r *Repo) CreateMenu(ctx context.Context, m domain.Menu) error {
	_, err := r.db.ExecContext(ctx, insertMenuSQL,
		m.ID, m.VenueID, m.Name, m.NameEn, valText(m.Description), m.Price,
		m.IsPopular, m.IsRecommended, m.DisplayOrder, m.CreatedAt.UTC(),
	)
	return translate(err)
}

func (r *Repo) GetMenu(ctx context.Context, id string) (domain.Menu, error) {
	m, err := scanMenu(r.db.QueryRowContext(ctx, getMenuSQL, id))
	if err != nil {
		return domain.Menu{}, translate(err)
	}
	return m, nil
}

func (r *Repo) UpdateMenu(ctx context.Context, m domain.Menu) error {
	_, err := r.db.ExecContext(ctx, updateMenuSQL,
		m.Name, m.NameEn, valText(m.Description), m.Price,
		m.IsPopular, m.IsRecommended, m.DisplayOrder,
		m.ID,
	)
	return translate(err)
}

func (r *Repo) DeleteMenu(ctx context.Context, id string) error {
	return mustAffect(r.db.ExecContext(ctx, deleteMenuSQL, id))
}

func (r *Repo) ListMenus(ctx context.Context, venueID string) ([]domain.Menu, error) {
	rows, err := r.db.QueryContext(ctx, listMenusSQL, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Menu
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ---------- images ----------

func scanImage(s scanner) (domain.VenueImage, error) {
	var img domain.VenueImage
	err := s.Scan(&img.ID, &img.VenueID, &img.URL, &img.Caption, &img.DisplayOrder, &img.CreatedAt)
	return img, err
}

func (r *Repo) CreateImage(ctx context.Context, img domain.VenueImage) error {
	_, err := r.db.ExecContext(ctx, insertImageSQL,
		img.ID, img.VenueID, img.URL, img.Caption, img.DisplayOrder, img.CreatedAt.UTC(),
	)
	return translate(err)
}

func (r *Repo) GetImage(ctx context.Context, id string) (domain.VenueImage, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, getImageSQL, id))
	if err != nil {
		return domain.VenueImage{}, translate(err)
	}
	return img, nil
}

func (r *Repo) UpdateImageOrder(ctx context.Context, id string, order int) error {
	_, err := r.db.ExecContext(ctx, updateImageOrderSQL, order, id)
	return translate(err)
}

func (r *Repo) DeleteImage(ctx context.Context, id string) error {
	return mustAffect(r.db.ExecContext(ctx, deleteImageSQL, id))
}

func (r *Repo) ListImages(ctx context.Context, venueID string) ([]domain.VenueImage, error) {
	rows, err := r.db.QueryContext(ctx, listImagesSQL, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.VenueImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
