package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"venue_reputation/internal/adapters/identity"
	"venue_reputation/internal/app"
	"venue_reputation/internal/domain"
)

// stubStore implements the calls these routes make; anything else panics
// through the nil embedded interface.
type stubStore struct {
	domain.Store
	mu       sync.Mutex
	venues   map[string]domain.Venue
	owners   map[string]bool
	reviews  map[string]domain.Review
	insights map[string]domain.Insight
}

func newStubStore() *stubStore {
	return &stubStore{
		venues:   map[string]domain.Venue{"v-1": {ID: "v-1", Name: "Hadongkwan", PopularityScore: 4.1}},
		owners:   map[string]bool{"owner-1|v-1": true},
		reviews:  map[string]domain.Review{},
		insights: map[string]domain.Insight{},
	}
}

func (s *stubStore) GetVenue(ctx context.Context, id string) (domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[id]
	if !ok {
		return domain.Venue{}, domain.ErrNotFound
	}
	return v, nil
}

func (s *stubStore) UpdatePopularityScore(ctx context.Context, id string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.venues[id]
	v.PopularityScore = score
	s.venues[id] = v
	return nil
}

func (s *stubStore) RefreshNativeAggregate(ctx context.Context, id string) (domain.NativeAggregate, error) {
	return domain.NativeAggregate{}, nil
}

func (s *stubStore) IsOwner(ctx context.Context, userID, venueID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owners[userID+"|"+venueID], nil
}

func (s *stubStore) CreateReview(ctx context.Context, r domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.venues[r.VenueID]; !ok {
		return domain.ErrNotFound
	}
	s.reviews[r.ID] = r
	return nil
}

func (s *stubStore) GetInsight(ctx context.Context, venueID string) (domain.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.insights[venueID]
	if !ok {
		return domain.Insight{}, domain.ErrNotFound
	}
	return in, nil
}

type harness struct {
	srv   *httptest.Server
	store *stubStore
	v     *identity.Verifier
}

func newHarness(t *testing.T, insightsPerMinute int) *harness {
	t.Helper()
	st := newStubStore()
	v, err := identity.NewVerifier("test-secret")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	guard := app.NewOwnershipGuard(st)
	h := &Handlers{
		Queries:   app.NewQueryService(st, nil, time.Minute),
		Reviews:   app.NewReviewService(st, st, nil),
		Dashboard: app.NewDashboardService(st, st, guard, nil, time.Minute),
		Content:   app.NewContentService(st, guard, nil, time.Minute),
		Insights:  app.NewInsightService(st, nil, guard, nil, time.Minute),
		Guard:     guard,
	}
	s := New()
	s.MountHandlers(h, Routes{Verifier: v, InsightsPerMinute: insightsPerMinute})
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return &harness{srv: ts, store: st, v: v}
}

func (hs *harness) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := hs.v.Issue(identity.Principal{UserID: userID, Name: "Tester", Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func (hs *harness) do(t *testing.T, method, path, token, body string, hdr ...string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(method, hs.srv.URL+path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeProblem(t *testing.T, resp *http.Response) problem {
	t.Helper()
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type = %q", ct)
	}
	var p problem
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return p
}

func TestHealthz(t *testing.T) {
	hs := newHarness(t, 0)
	if resp := hs.do(t, http.MethodGet, "/healthz", "", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestGetVenue_ETagAndNotFound(t *testing.T) {
	hs := newHarness(t, 0)

	resp := hs.do(t, http.MethodGet, "/v1/venues/v-1", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got app.VenueView
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Hadongkwan" || got.Tier.LabelEn != "Highly Popular" {
		t.Fatalf("unexpected venue: %+v", got)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	if resp := hs.do(t, http.MethodGet, "/v1/venues/v-1", "", "", "If-None-Match", etag); resp.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional GET status = %d, want 304", resp.StatusCode)
	}

	resp = hs.do(t, http.MethodGet, "/v1/venues/nope", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if p := decodeProblem(t, resp); p.Status != 404 {
		t.Fatalf("problem = %+v", p)
	}
}

func TestInsightGet_NullWhenAbsent(t *testing.T) {
	hs := newHarness(t, 0)
	resp := hs.do(t, http.MethodGet, "/v1/venues/v-1/insights", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	if string(raw) != "null" {
		t.Fatalf("body = %s, want null", raw)
	}
}

func TestCreateReview_Auth(t *testing.T) {
	hs := newHarness(t, 0)
	body := `{"venueId":"v-1","rating":5,"comment":"great"}`

	if resp := hs.do(t, http.MethodPost, "/v1/reviews", "", body); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", resp.StatusCode)
	}
	if resp := hs.do(t, http.MethodPost, "/v1/reviews", "garbage", body); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", resp.StatusCode)
	}

	resp := hs.do(t, http.MethodPost, "/v1/reviews", hs.token(t, "u-1", ""), body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var rv app.ReviewView
	if err := json.NewDecoder(resp.Body).Decode(&rv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rv.UserID != "u-1" || rv.UserName != "Tester" || rv.Rating != 5 {
		t.Fatalf("unexpected review: %+v", rv)
	}
}

func TestCreateReview_BadBodies(t *testing.T) {
	hs := newHarness(t, 0)
	tok := hs.token(t, "u-1", "")

	cases := []struct {
		name, body, field string
	}{
		{"rating range", `{"venueId":"v-1","rating":9,"comment":"x"}`, "rating"},
		{"unknown field", `{"venueId":"v-1","rating":4,"comment":"x","stars":4}`, "stars"},
		{"wrong type", `{"venueId":"v-1","rating":"four","comment":"x"}`, "rating"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := hs.do(t, http.MethodPost, "/v1/reviews", tok, tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if p := decodeProblem(t, resp); p.Field != tc.field {
				t.Fatalf("field = %q, want %q", p.Field, tc.field)
			}
		})
	}
}

func TestTriggerInsight_OwnershipAndRateLimit(t *testing.T) {
	hs := newHarness(t, 1)
	hs.store.insights["v-1"] = domain.Insight{ID: "in-1", VenueID: "v-1", InsightFields: domain.InsightFields{ReviewInsightsEn: "stored"}}
	body := `{"venueId":"v-1"}`

	if resp := hs.do(t, http.MethodPost, "/v1/insights", hs.token(t, "stranger", ""), body); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-owner: status = %d, want 403", resp.StatusCode)
	}

	owner := hs.token(t, "owner-1", "")
	resp := hs.do(t, http.MethodPost, "/v1/insights", owner, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner: status = %d", resp.StatusCode)
	}
	var in app.InsightView
	_ = json.NewDecoder(resp.Body).Decode(&in)
	if in.ID != "in-1" || in.ReviewInsightsEn != "stored" {
		t.Fatalf("existing insight not returned: %+v", in)
	}

	if resp := hs.do(t, http.MethodPost, "/v1/insights", owner, body); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second call: status = %d, want 429", resp.StatusCode)
	}
}

func TestAdminBatch_RequiresAdmin(t *testing.T) {
	hs := newHarness(t, 0)
	if resp := hs.do(t, http.MethodPost, "/v1/admin/insights/batch", hs.token(t, "owner-1", ""), ""); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.NewValidationError("rating", "must be at most 5"), http.StatusBadRequest},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrConflict), http.StatusConflict},
		{domain.Upstream("insight.generate", "v-1", errors.New("dial tcp 10.0.0.7:443: secret detail")), http.StatusBadGateway},
		{errors.New("something odd"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		if strings.Contains(rec.Body.String(), "secret detail") || strings.Contains(rec.Body.String(), "something odd") {
			t.Fatalf("%v: cause leaked: %s", tc.err, rec.Body.String())
		}
	}
}
