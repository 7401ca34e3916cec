package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"venue_reputation/internal/domain"
)

// ---- in-memory store ----

type memStore struct {
	mu        sync.Mutex
	venues    map[string]domain.Venue
	owners    map[string]string // userID|venueID -> role
	reviews   map[string]domain.Review
	responses map[string]domain.ReviewResponse
	insights  map[string]domain.Insight
	promos    map[string]domain.Promotion
	menus     map[string]domain.Menu
	images    map[string]domain.VenueImage

	ownerErr  error // returned by IsOwner when set
	insertErr error // returned by InsertInsightIfAbsent when set
	inserts   int
}

var _ domain.Store = (*memStore)(nil)

func newMemStore(venues ...domain.Venue) *memStore {
	st := &memStore{
		venues:    map[string]domain.Venue{},
		owners:    map[string]string{},
		reviews:   map[string]domain.Review{},
		responses: map[string]domain.ReviewResponse{},
		insights:  map[string]domain.Insight{},
		promos:    map[string]domain.Promotion{},
		menus:     map[string]domain.Menu{},
		images:    map[string]domain.VenueImage{},
	}
	for _, v := range venues {
		st.venues[v.ID] = v
	}
	return st
}

func ownerKey(userID, venueID string) string { return userID + "|" + venueID }

func (m *memStore) GetVenue(ctx context.Context, id string) (domain.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.venues[id]
	if !ok {
		return domain.Venue{}, domain.ErrNotFound
	}
	return v, nil
}

func (m *memStore) ListVenues(ctx context.Context, q domain.VenuesQuery) ([]domain.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Venue
	for _, v := range m.venues {
		if q.District != nil && v.District != *q.District {
			continue
		}
		if q.Category != nil && v.Category != *q.Category {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PopularityScore != out[j].PopularityScore {
			return out[i].PopularityScore > out[j].PopularityScore
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memStore) UpdateSources(ctx context.Context, id string, naver, google domain.SourceRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.venues[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.Naver, v.Google = naver, google
	m.venues[id] = v
	return nil
}

func (m *memStore) UpdatePopularityScore(ctx context.Context, id string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.venues[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.PopularityScore = score
	m.venues[id] = v
	return nil
}

func (m *memStore) RefreshNativeAggregate(ctx context.Context, id string) (domain.NativeAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.venues[id]
	if !ok {
		return domain.NativeAggregate{}, domain.ErrNotFound
	}
	sum, n := 0, 0
	for _, r := range m.reviews {
		if r.VenueID == id {
			sum += r.Rating
			n++
		}
	}
	agg := domain.NativeAggregate{Count: n}
	if n > 0 {
		agg.Average = math.Round(float64(sum)/float64(n)*10) / 10
	}
	v.Rating, v.ReviewCount = agg.Average, agg.Count
	m.venues[id] = v
	return agg, nil
}

func (m *memStore) IsOwner(ctx context.Context, userID, venueID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ownerErr != nil {
		return false, m.ownerErr
	}
	_, ok := m.owners[ownerKey(userID, venueID)]
	return ok, nil
}

func (m *memStore) CreateOwner(ctx context.Context, o domain.Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.venues[o.VenueID]; !ok {
		return domain.ErrNotFound
	}
	m.owners[ownerKey(o.UserID, o.VenueID)] = o.Role
	return nil
}

func (m *memStore) ListOwnedVenues(ctx context.Context, userID string) ([]domain.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Venue
	for k := range m.owners {
		if u, vid, _ := strings.Cut(k, "|"); u == userID {
			out = append(out, m.venues[vid])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateReview(ctx context.Context, r domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.venues[r.VenueID]; !ok {
		return domain.ErrNotFound
	}
	m.reviews[r.ID] = r
	return nil
}

func (m *memStore) GetReview(ctx context.Context, id string) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memStore) UpdateReview(ctx context.Context, r domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[r.ID]; !ok {
		return domain.ErrNotFound
	}
	m.reviews[r.ID] = r
	return nil
}

func (m *memStore) DeleteReview(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.reviews, id)
	for rid, resp := range m.responses {
		if resp.ReviewID == id {
			delete(m.responses, rid)
		}
	}
	return nil
}

func (m *memStore) ListReviews(ctx context.Context, venueID string, limit int) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reviewsOf(venueID, limit), nil
}

func (m *memStore) reviewsOf(venueID string, limit int) []domain.Review {
	var out []domain.Review
	for _, r := range m.reviews {
		if r.VenueID == venueID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memStore) ListReviewsWithResponses(ctx context.Context, venueID string) ([]domain.ReviewWithResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ReviewWithResponse
	for _, r := range m.reviewsOf(venueID, 0) {
		row := domain.ReviewWithResponse{Review: r}
		for _, resp := range m.responses {
			if resp.ReviewID == r.ID {
				resp := resp
				row.Response = &resp
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memStore) CreateResponse(ctx context.Context, r domain.ReviewResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.responses {
		if existing.ReviewID == r.ReviewID {
			return domain.ErrConflict
		}
	}
	m.responses[r.ID] = r
	return nil
}

func (m *memStore) GetResponse(ctx context.Context, id string) (domain.ReviewResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[id]
	if !ok {
		return domain.ReviewResponse{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memStore) GetResponseByReview(ctx context.Context, reviewID string) (domain.ReviewResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.responses {
		if r.ReviewID == reviewID {
			return r, nil
		}
	}
	return domain.ReviewResponse{}, domain.ErrNotFound
}

func (m *memStore) UpdateResponse(ctx context.Context, r domain.ReviewResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.responses[r.ID]; !ok {
		return domain.ErrNotFound
	}
	m.responses[r.ID] = r
	return nil
}

func (m *memStore) DeleteResponse(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.responses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.responses, id)
	return nil
}

func (m *memStore) GetInsight(ctx context.Context, venueID string) (domain.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.insights[venueID]
	if !ok {
		return domain.Insight{}, domain.ErrNotFound
	}
	return in, nil
}

func (m *memStore) InsertInsightIfAbsent(ctx context.Context, in domain.Insight) (domain.Insight, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return domain.Insight{}, false, m.insertErr
	}
	if existing, ok := m.insights[in.VenueID]; ok {
		return existing, false, nil
	}
	m.insights[in.VenueID] = in
	m.inserts++
	return in, true, nil
}

func (m *memStore) UpsertInsight(ctx context.Context, in domain.Insight) (domain.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.insights[in.VenueID]; ok {
		in.ID = existing.ID
	}
	m.insights[in.VenueID] = in
	return in, nil
}

func (m *memStore) CreatePromotion(ctx context.Context, p domain.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promos[p.ID] = p
	return nil
}

func (m *memStore) GetPromotion(ctx context.Context, id string) (domain.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[id]
	if !ok {
		return domain.Promotion{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memStore) UpdatePromotion(ctx context.Context, p domain.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promos[p.ID] = p
	return nil
}

func (m *memStore) DeletePromotion(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.promos[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.promos, id)
	return nil
}

func (m *memStore) ListPromotions(ctx context.Context, venueID string) ([]domain.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Promotion
	for _, p := range m.promos {
		if p.VenueID == venueID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateMenu(ctx context.Context, mn domain.Menu) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menus[mn.ID] = mn
	return nil
}

func (m *memStore) GetMenu(ctx context.Context, id string) (domain.Menu, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mn, ok := m.menus[id]
	if !ok {
		return domain.Menu{}, domain.ErrNotFound
	}
	return mn, nil
}

func (m *memStore) UpdateMenu(ctx context.Context, mn domain.Menu) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menus[mn.ID] = mn
	return nil
}

func (m *memStore) DeleteMenu(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.menus[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.menus, id)
	return nil
}

func (m *memStore) ListMenus(ctx context.Context, venueID string) ([]domain.Menu, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Menu
	for _, mn := range m.menus {
		if mn.VenueID == venueID {
			out = append(out, mn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *memStore) CreateImage(ctx context.Context, img domain.VenueImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[img.ID] = img
	return nil
}

func (m *memStore) GetImage(ctx context.Context, id string) (domain.VenueImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return domain.VenueImage{}, domain.ErrNotFound
	}
	return img, nil
}

func (m *memStore) UpdateImageOrder(ctx context.Context, id string, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return domain.ErrNotFound
	}
	img.DisplayOrder = order
	m.images[id] = img
	return nil
}

func (m *memStore) DeleteImage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.images, id)
	return nil
}

func (m *memStore) ListImages(ctx context.Context, venueID string) ([]domain.VenueImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.VenueImage
	for _, img := range m.images {
		if img.VenueID == venueID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

// ---- cache ----

// fakeCache stores JSON like the Redis adapter, so a hit decodes into a
// fresh value rather than aliasing what was stored.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

// ---- collaborators ----

const validInsightJSON = `{
  "reviewInsights": "맛있다는 평이 많습니다.",
  "reviewInsightsEn": "Reviewers praise the food.",
  "bestFor": "데이트, 가족 모임",
  "bestForEn": "Date night, Family gathering",
  "culturalTips": "반찬은 리필됩니다.",
  "culturalTipsEn": "Side dishes are refilled for free.",
  "firstTimerTips": "점심에 방문하세요.",
  "firstTimerTipsEn": "Visit at lunch."
}`

type fakeGen struct {
	calls   atomic.Int32
	text    string
	err     error
	release chan struct{} // when set, Generate blocks until closed
}

func (g *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type fakeLookup struct {
	matches map[string]domain.PlaceMatch // by venue name
	errs    map[string]error
	calls   []string
}

func (l *fakeLookup) Search(ctx context.Context, name, address string) (domain.PlaceMatch, error) {
	l.calls = append(l.calls, name)
	if err, ok := l.errs[name]; ok {
		return domain.PlaceMatch{}, err
	}
	if m, ok := l.matches[name]; ok {
		return m, nil
	}
	return domain.PlaceMatch{}, domain.ErrNotFound
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }

func venue(id, name string) domain.Venue {
	return domain.Venue{ID: id, Name: name, Category: "restaurant", District: "Jongno", UpdatedAt: time.Now().UTC()}
}
