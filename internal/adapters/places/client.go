// Package places looks up a venue's public rating on the Google Places text
// search API.
package places

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"venue_reputation/internal/adapters/breaker"
	"venue_reputation/internal/adapters/observability"
	"venue_reputation/internal/domain"
)

const service = "places"

type Client struct {
	base    string
	hc      *http.Client
	key     string
	rl      *rate.Limiter
	timeout time.Duration
	cb      *breaker.Breaker[domain.PlaceMatch]
}

func New(base, key string, rps int, timeout time.Duration) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("places: API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: timeout},
		key:     key,
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		timeout: timeout,
		cb:      breaker.New[domain.PlaceMatch](service, breaker.Settings{Failures: 5, OpenFor: time.Minute}),
	}, nil
}

var (
	ErrUnauthorized = errors.New("places: unauthorized")
	ErrQuota        = errors.New("places: over query limit")
)

type searchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID          string   `json:"place_id"`
		Name             string   `json:"name"`
		Rating           *float64 `json:"rating"`
		UserRatingsTotal *int     `json:"user_ratings_total"`
	} `json:"results"`
}

// Search returns the best text-search match for name+address, or
// domain.ErrNotFound when the provider has none.
func (c *Client) Search(ctx context.Context, name, address string) (domain.PlaceMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("query", strings.TrimSpace(name+" "+address))
	q.Set("key", c.key)
	q.Set("language", "ko")
	q.Set("region", "kr")
	u := c.base + "/textsearch/json?" + q.Encode()

	return c.cb.Do(func() (domain.PlaceMatch, error) {
		var out searchResponse
		if err := c.get(ctx, u, &out); err != nil {
			return domain.PlaceMatch{}, err
		}
		switch out.Status {
		case "OK":
		case "ZERO_RESULTS":
			return domain.PlaceMatch{}, domain.ErrNotFound
		case "OVER_QUERY_LIMIT":
			return domain.PlaceMatch{}, ErrQuota
		case "REQUEST_DENIED":
			return domain.PlaceMatch{}, ErrUnauthorized
		default:
			return domain.PlaceMatch{}, fmt.Errorf("places: status %s: %s", out.Status, out.ErrorMessage)
		}
		if len(out.Results) == 0 {
			return domain.PlaceMatch{}, domain.ErrNotFound
		}
		top := out.Results[0]
		return domain.PlaceMatch{PlaceID: top.PlaceID, Rating: top.Rating, ReviewCount: top.UserRatingsTotal}, nil
	})
}

// ---- Internals ----

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided. The
// caller's deadline bounds the whole sequence.
func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "venue-reputation/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, "textsearch", 0, time.Since(start))
			// timeouts are reported, not retried
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// url.Error embeds the request URL, which carries the key
			var ue *url.Error
			if errors.As(err, &ue) {
				return fmt.Errorf("places: %s: %w", ue.Op, ue.Err)
			}
			return err
		}
		observability.ObserveExternal(service, "textsearch", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("places: remote %d", resp.StatusCode)
			if i < 2 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("places: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
