// Package gemini calls the Gemini generateContent REST endpoint.
//
// A call is made exactly once: there is no retry loop here, since generation
// is costly and callers (request handlers, batch commands) decide when to try
// again. Repeated failures open a circuit breaker.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"venue_reputation/internal/adapters/breaker"
	"venue_reputation/internal/adapters/observability"
)

const service = "gemini"

var (
	ErrEmpty   = errors.New("gemini: empty response")
	ErrBlocked = errors.New("gemini: prompt blocked")
)

type Client struct {
	base    string
	model   string
	key     string
	hc      *http.Client
	rl      *rate.Limiter
	timeout time.Duration
	cb      *breaker.Breaker[string]
}

type Options struct {
	Model   string
	Timeout time.Duration
	// RPS caps outbound calls per second; zero means one per second.
	RPS float64
}

func New(base, key string, o Options) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if o.Model == "" {
		o.Model = "gemini-2.0-flash"
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RPS <= 0 {
		o.RPS = 1
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		model:   o.Model,
		key:     key,
		hc:      &http.Client{Timeout: o.Timeout},
		rl:      rate.NewLimiter(rate.Limit(o.RPS), 1),
		timeout: o.Timeout,
		cb:      breaker.New[string](service, breaker.Settings{Failures: 3, OpenFor: 2 * time.Minute}),
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate returns the concatenated text parts of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	return c.cb.Do(func() (string, error) { return c.generate(ctx, prompt) })
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: 0.7, MaxOutputTokens: 2048},
	})
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.base, url.PathEscape(c.model), url.QueryEscape(c.key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, "generateContent", 0, time.Since(start))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// url.Error embeds the request URL, which carries the key
		var ue *url.Error
		if errors.As(err, &ue) {
			return "", fmt.Errorf("gemini: %s: %w", ue.Op, ue.Err)
		}
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, "generateContent", resp.StatusCode, time.Since(start))

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini: decode: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", ErrEmpty
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmpty
	}
	return sb.String(), nil
}
