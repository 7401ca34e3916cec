//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"venue_reputation/internal/adapters/gemini"
	server "venue_reputation/internal/adapters/http_server"
	"venue_reputation/internal/adapters/identity"
	redisad "venue_reputation/internal/adapters/redis"
	"venue_reputation/internal/app"
	mysqlrepo "venue_reputation/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=venues",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "venues")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeGemini answers generateContent with a fixed insight document.
func fakeGemini(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	doc, _ := json.Marshal(map[string]string{
		"reviewInsights":   "전이 바삭하다는 평이 많습니다.",
		"reviewInsightsEn": "Reviewers love the crispy pancakes.",
		"bestFor":          "친구 모임",
		"bestForEn":        "Groups of friends",
		"culturalTips":     "현금을 준비하세요.",
		"culturalTipsEn":   "Bring cash.",
		"firstTimerTips":   "오후 늦게 방문하세요.",
		"firstTimerTipsEn": "Go late in the afternoon.",
	})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]string{"text": "```json\n" + string(doc) + "\n```"}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)
	return ts
}

type client struct {
	t    *testing.T
	base string
}

func (c client) do(method, path, token string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	return res, buf.Bytes()
}

func (c client) expect(method, path, token string, body any, want int, out any) {
	c.t.Helper()
	res, raw := c.do(method, path, token, body)
	if res.StatusCode != want {
		c.t.Fatalf("%s %s: status %d, want %d; body=%s", method, path, res.StatusCode, want, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}

// ---------- the test ----------

func TestHTTP_EndToEnd_ReviewResponseInsight(t *testing.T) {
	db := startMySQL(t)
	applyMigrations(t, db)
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO venues (id, name, name_en, district, category, naver_rating, naver_review_count)
VALUES ('v-e2e', '광장시장 빈대떡', 'Gwangjang Bindaetteok', 'jongno', 'restaurant', 4.0, 200)`); err != nil {
		t.Fatalf("seed venue: %v", err)
	}

	repo := mysqlrepo.New(db)
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	var genCalls atomic.Int32
	gen, err := gemini.New(fakeGemini(t, &genCalls).URL, "e2e-key", gemini.Options{Model: "test-model", Timeout: 5 * time.Second, RPS: 100})
	if err != nil {
		t.Fatalf("gemini: %v", err)
	}

	guard := app.NewOwnershipGuard(repo)
	if err := guard.GrantOwnership(ctx, app.GrantOwnershipRequest{UserID: "owner-1", VenueID: "v-e2e"}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	ttl := time.Minute
	h := &server.Handlers{
		Queries:   app.NewQueryService(repo, cache, ttl),
		Reviews:   app.NewReviewService(repo, repo, cache),
		Dashboard: app.NewDashboardService(repo, repo, guard, cache, ttl),
		Content:   app.NewContentService(repo, guard, cache, ttl),
		Insights:  app.NewInsightService(repo, gen, guard, cache, ttl),
		Guard:     guard,
	}
	verifier, err := identity.NewVerifier("e2e-secret")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	srv := server.New()
	srv.MountHandlers(h, server.Routes{Verifier: verifier, InsightsPerMinute: 10})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	issue := func(userID string) string {
		tok, err := verifier.Issue(identity.Principal{UserID: userID, Name: "E2E " + userID}, time.Hour)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return tok
	}
	guest, owner, stranger := issue("guest-1"), issue("owner-1"), issue("stranger-1")
	c := client{t: t, base: ts.URL}

	type venueBody struct {
		Rating          float64 `json:"rating"`
		ReviewCount     int     `json:"reviewCount"`
		PopularityScore float64 `json:"popularityScore"`
	}

	// warm the cache so the review write has something to invalidate
	var before venueBody
	c.expect(http.MethodGet, "/v1/venues/v-e2e", "", nil, http.StatusOK, &before)
	if before.ReviewCount != 0 {
		t.Fatalf("fresh venue has %d reviews", before.ReviewCount)
	}

	var review struct {
		ID string `json:"id"`
	}
	c.expect(http.MethodPost, "/v1/reviews", guest,
		map[string]any{"venueId": "v-e2e", "rating": 5, "comment": "빈대떡 최고"}, http.StatusCreated, &review)
	c.expect(http.MethodPost, "/v1/reviews", "",
		map[string]any{"venueId": "v-e2e", "rating": 5, "comment": "anon"}, http.StatusUnauthorized, nil)

	var after venueBody
	c.expect(http.MethodGet, "/v1/venues/v-e2e", "", nil, http.StatusOK, &after)
	if after.Rating != 5 || after.ReviewCount != 1 {
		t.Fatalf("aggregate = %.1f/%d, want 5.0/1", after.Rating, after.ReviewCount)
	}
	if after.PopularityScore != 2.25 {
		t.Fatalf("score = %v, want 2.25", after.PopularityScore)
	}

	// owner response lifecycle
	respBody := map[string]any{"venueId": "v-e2e", "reviewId": review.ID, "response": "감사합니다!"}
	c.expect(http.MethodPost, "/v1/review-responses", stranger, respBody, http.StatusForbidden, nil)
	var resp struct {
		ID string `json:"id"`
	}
	c.expect(http.MethodPost, "/v1/review-responses", owner, respBody, http.StatusCreated, &resp)
	c.expect(http.MethodPost, "/v1/review-responses", owner, respBody, http.StatusConflict, nil)

	var public []struct {
		ID       string         `json:"id"`
		Response map[string]any `json:"response"`
	}
	c.expect(http.MethodGet, "/v1/venues/v-e2e/reviews", "", nil, http.StatusOK, &public)
	if len(public) != 1 || public[0].Response == nil || public[0].Response["response"] != "감사합니다!" {
		t.Fatalf("public reviews = %+v", public)
	}
	if _, leaked := public[0].Response["ownerUserId"]; leaked {
		t.Fatalf("public view exposes the responder")
	}

	c.expect(http.MethodDelete, "/v1/review-responses/"+resp.ID+"?venueId=v-e2e", stranger, nil, http.StatusNotFound, nil)
	c.expect(http.MethodDelete, "/v1/review-responses/"+resp.ID+"?venueId=v-e2e", owner, nil, http.StatusNoContent, nil)

	// insight: absent, generated once, then served from storage
	var none any
	c.expect(http.MethodGet, "/v1/venues/v-e2e/insights", "", nil, http.StatusOK, &none)
	if none != nil {
		t.Fatalf("insight before generation = %v", none)
	}
	c.expect(http.MethodPost, "/v1/insights", stranger, map[string]any{"venueId": "v-e2e"}, http.StatusForbidden, nil)

	var first, second struct {
		ID        string `json:"id"`
		BestForEn string `json:"bestForEn"`
	}
	c.expect(http.MethodPost, "/v1/insights", owner, map[string]any{"venueId": "v-e2e"}, http.StatusOK, &first)
	c.expect(http.MethodPost, "/v1/insights", owner, map[string]any{"venueId": "v-e2e"}, http.StatusOK, &second)
	if first.BestForEn != "Groups of friends" || first.ID != second.ID {
		t.Fatalf("insights = %+v / %+v", first, second)
	}
	if n := genCalls.Load(); n != 1 {
		t.Fatalf("generator called %d times, want 1", n)
	}

	c.expect(http.MethodPost, "/v1/insights", owner, map[string]any{"venueId": "v-e2e", "regenerate": true}, http.StatusOK, &second)
	if second.ID != first.ID || genCalls.Load() != 2 {
		t.Fatalf("regenerate: id %s (want %s), calls %d", second.ID, first.ID, genCalls.Load())
	}

	// deleting the only review resets the aggregate
	c.expect(http.MethodDelete, "/v1/reviews/"+review.ID, guest, nil, http.StatusNoContent, nil)
	c.expect(http.MethodGet, "/v1/venues/v-e2e", "", nil, http.StatusOK, &after)
	if after.Rating != 0 || after.ReviewCount != 0 {
		t.Fatalf("aggregate after delete = %.1f/%d", after.Rating, after.ReviewCount)
	}
}
