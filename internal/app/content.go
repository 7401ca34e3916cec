package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"venue_reputation/internal/domain"
	"venue_reputation/internal/validation"
)

// ContentService manages the owner-maintained records hanging off a venue:
// promotions, menus and images. Creates answer non-owners with ErrForbidden;
// updates and deletes by id answer them with ErrNotFound.
type ContentService struct {
	repo     domain.ContentRepository
	guard    *OwnershipGuard
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
	newID    func() string
}

func NewContentService(r domain.ContentRepository, g *OwnershipGuard, c domain.Cache, ttl time.Duration) *ContentService {
	return &ContentService{repo: r, guard: g, cache: c, cacheTTL: ttl, now: time.Now, newID: uuid.NewString}
}

// ---------- promotions ----------

func promotionFields(p *domain.Promotion, req PromotionRequest) error {
	dt := domain.DiscountType(req.DiscountType)
	if dt == domain.DiscountPercentage && req.DiscountValue != nil && *req.DiscountValue > 100 {
		return domain.NewValidationError("discountValue", "must be at most 100 for percentage discounts")
	}
	p.Title = strings.TrimSpace(req.Title)
	p.TitleEn = strings.TrimSpace(req.TitleEn)
	p.Description = req.Description
	p.DescriptionEn = req.DescriptionEn
	p.DiscountType = dt
	p.DiscountValue = req.DiscountValue
	p.StartDate = req.StartDate.UTC()
	p.EndDate = req.EndDate.UTC()
	p.IsActive = req.IsActive == nil || *req.IsActive
	return nil
}

func (s *ContentService) CreatePromotion(ctx context.Context, userID string, req PromotionRequest) (PromotionView, error) {
	if userID == "" {
		return PromotionView{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return PromotionView{}, err
	}
	p := domain.Promotion{ID: s.newID(), VenueID: req.VenueID, CreatedAt: s.now().UTC()}
	if err := promotionFields(&p, req); err != nil {
		return PromotionView{}, err
	}
	if err := s.guard.Authorize(ctx, "promotion.create", userID, req.VenueID); err != nil {
		return PromotionView{}, err
	}
	if err := s.repo.CreatePromotion(ctx, p); err != nil {
		return PromotionView{}, classify("promotion.create", req.VenueID, err)
	}
	invalidateVenue(ctx, s.cache, req.VenueID, false)
	return MapPromotion(p), nil
}

func (s *ContentService) UpdatePromotion(ctx context.Context, userID, id string, req PromotionRequest) (PromotionView, error) {
	if userID == "" {
		return PromotionView{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return PromotionView{}, err
	}
	if err := s.guard.AuthorizeScoped(ctx, "promotion.update", userID, req.VenueID); err != nil {
		return PromotionView{}, err
	}
	p, err := s.repo.GetPromotion(ctx, id)
	if err != nil {
		return PromotionView{}, classify("promotion.update", req.VenueID, err)
	}
	if p.VenueID != req.VenueID {
		return PromotionView{}, domain.ErrNotFound
	}
	if err := promotionFields(&p, req); err != nil {
		return PromotionView{}, err
	}
	if err := s.repo.UpdatePromotion(ctx, p); err != nil {
		return PromotionView{}, classify("promotion.update", req.VenueID, err)
	}
	invalidateVenue(ctx, s.cache, req.VenueID, false)
	return MapPromotion(p), nil
}

func (s *ContentService) DeletePromotion(ctx context.Context, userID, id string, ref VenueRef) error {
	return s.scopedDelete(ctx, "promotion.delete", userID, id, ref,
		func() (string, error) {
			p, err := s.repo.GetPromotion(ctx, id)
			return p.VenueID, err
		},
		func() error { return s.repo.DeletePromotion(ctx, id) },
	)
}

// ---------- menus ----------

func menuFields(m *domain.Menu, req MenuRequest) {
	m.Name = strings.TrimSpace(req.Name)
	m.NameEn = strings.TrimSpace(req.NameEn)
	m.Description = req.Description
	m.Price = req.Price
	m.IsPopular = req.IsPopular
	m.IsRecommended = req.IsRecommended
	m.DisplayOrder = req.DisplayOrder
}

func (s *ContentService) CreateMenu(ctx context.Context, userID string, req MenuRequest) (MenuView, error) {
	if userID == "" {
		return MenuView{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return MenuView{}, err
	}
	if err := s.guard.Authorize(ctx, "menu.create", userID, req.VenueID); err != nil {
		return MenuView{}, err
	}
	m := domain.Menu{ID: s.newID(), VenueID: req.VenueID, CreatedAt: s.now().UTC()}
	menuFields(&m, req)
	if err := s.repo.CreateMenu(ctx, m); err != nil {
		return MenuView{}, classify("menu.create", req.VenueID, err)
	}
	invalidateVenue(ctx, s.cache, req.VenueID, false)
	return MapMenu(m), nil
}

func (s *ContentService) UpdateMenu(ctx context.Context, userID, id string, req MenuRequest) (MenuView, error) {
	if userID == "" {
		return MenuView{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return MenuView{}, err
	}
	if err := s.guard.AuthorizeScoped(ctx, "menu.update", userID, req.VenueID); err != nil {
		return MenuView{}, err
	}
	m, err := s.repo.GetMenu(ctx, id)
	if err != nil {
		return MenuView{}, classify("menu.update", req.VenueID, err)
	}
	if m.VenueID != req.VenueID {
		return MenuView{}, domain.ErrNotFound
	}
	menuFields(&m, req)
	if err := s.repo.UpdateMenu(ctx, m); err != nil {
		return MenuView{}, classify("menu.update", req.VenueID, err)
	}
	invalidateVenue(ctx, s.cache, req.VenueID, false)
	return MapMenu(m), nil
}

func (s *ContentService) DeleteMenu(ctx context.Context, userID, id string, ref VenueRef) error {
	return s.scopedDelete(ctx, "menu.delete", userID, id, ref,
		func() (string, error) {
			m, err := s.repo.GetMenu(ctx, id)
			return m.VenueID, err
		},
		func() error { return s.repo.DeleteMenu(ctx, id) },
	)
}

// ---------- images ----------

func (s *ContentService) CreateImage(ctx context.Context, userID string, req ImageRequest) (ImageView, error) {
	if userID == "" {
		return ImageView{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return ImageView{}, err
	}
	if err := s.guard.Authorize(ctx, "image.create", userID, req.VenueID); err != nil {
		return ImageView{}, err
	}
	img := domain.VenueImage{
		ID:           s.newID(),
		VenueID:      req.VenueID,
		URL:          req.URL,
		Caption:      strings.TrimSpace(req.Caption),
		DisplayOrder: req.DisplayOrder,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateImage(ctx, img); err != nil {
		return ImageView{}, classify("image.create", req.VenueID, err)
	}
	invalidateVenue(ctx, s.cache, req.VenueID, false)
	return MapImage(img), nil
}

func (s *ContentService) ReorderImage(ctx context.Context, userID, id string, req ImageOrderRequest) (ImageView, error) {
	if userID == "" {
		return ImageView{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return ImageView{}, err
	}
	if err := s.guard.AuthorizeScoped(ctx, "image.reorder", userID, req.VenueID); err != nil {
		return ImageView{}, err
	}
	img, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return ImageView{}, classify("image.reorder", req.VenueID, err)
	}
	if img.VenueID != req.VenueID {
		return ImageView{}, domain.ErrNotFound
	}
	if err := s.repo.UpdateImageOrder(ctx, id, req.DisplayOrder); err != nil {
		return ImageView{}, classify("image.reorder", req.VenueID, err)
	}
	img.DisplayOrder = req.DisplayOrder
	invalidateVenue(ctx, s.cache, req.VenueID, false)
	return MapImage(img), nil
}

func (s *ContentService) DeleteImage(ctx context.Context, userID, id string, ref VenueRef) error {
	return s.scopedDelete(ctx, "image.delete", userID, id, ref,
		func() (string, error) {
			img, err := s.repo.GetImage(ctx, id)
			return img.VenueID, err
		},
		func() error { return s.repo.DeleteImage(ctx, id) },
	)
}

// scopedDelete is the shared delete path: authenticate, validate the venue
// reference, check ownership, confirm the entity belongs to that venue, delete.
func (s *ContentService) scopedDelete(ctx context.Context, op, userID, id string, ref VenueRef, owner func() (string, error), del func() error) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if err := validation.Struct(ref); err != nil {
		return err
	}
	if err := s.guard.AuthorizeScoped(ctx, op, userID, ref.VenueID); err != nil {
		return err
	}
	venueID, err := owner()
	if err != nil {
		return classify(op, ref.VenueID, err)
	}
	if venueID != ref.VenueID {
		return domain.ErrNotFound
	}
	if err := del(); err != nil {
		return classify(op, ref.VenueID, err)
	}
	invalidateVenue(ctx, s.cache, ref.VenueID, false)
	return nil
}

// ---------- public reads ----------

// ActivePromotions lists promotions switched on whose window contains now.
// The cached list is unfiltered so expiry is judged at read time.
func (s *ContentService) ActivePromotions(ctx context.Context, venueID string) ([]PromotionView, error) {
	all, err := readThrough(ctx, s.cache, s.cacheTTL, venuePromotionsKey(venueID), func() ([]domain.Promotion, error) {
		ps, err := s.repo.ListPromotions(ctx, venueID)
		if err != nil {
			return nil, classify("promotions.list", venueID, err)
		}
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]PromotionView, 0, len(all))
	for _, p := range all {
		if p.ActiveAt(now) {
			out = append(out, MapPromotion(p))
		}
	}
	return out, nil
}

func (s *ContentService) Menus(ctx context.Context, venueID string) ([]MenuView, error) {
	return readThrough(ctx, s.cache, s.cacheTTL, venueMenusKey(venueID), func() ([]MenuView, error) {
		ms, err := s.repo.ListMenus(ctx, venueID)
		if err != nil {
			return nil, classify("menus.list", venueID, err)
		}
		return mapAll(ms, MapMenu), nil
	})
}

func (s *ContentService) Images(ctx context.Context, venueID string) ([]ImageView, error) {
	return readThrough(ctx, s.cache, s.cacheTTL, venueImagesKey(venueID), func() ([]ImageView, error) {
		is, err := s.repo.ListImages(ctx, venueID)
		if err != nil {
			return nil, classify("images.list", venueID, err)
		}
		return mapAll(is, MapImage), nil
	})
}
