package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"venue_reputation/internal/adapters/gemini"
)

func newClient(t *testing.T, url string, timeout time.Duration) *gemini.Client {
	t.Helper()
	cl, err := gemini.New(url, "test-key", gemini.Options{Model: "test-model", Timeout: timeout, RPS: 100})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func TestClient_Generate_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/models/test-model:generateContent" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing key")
		}
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("bad request body: %+v err=%v", body, err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`))
	}))
	defer ts.Close()

	got, err := newClient(t, ts.URL, time.Second).Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != `{"a":1}` {
		t.Fatalf("got %q", got)
	}
}

func TestClient_Generate_NoRetryOnServerError(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL, time.Second).Generate(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("err = %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected exactly one call, got %d", hits)
	}
}

func TestClient_Generate_Blocked(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL, time.Second).Generate(context.Background(), "x")
	if !errors.Is(err, gemini.ErrBlocked) {
		t.Fatalf("err = %v, want ErrBlocked", err)
	}
}

func TestClient_Generate_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	start := time.Now()
	_, err := newClient(t, ts.URL, 100*time.Millisecond).Generate(context.Background(), "x")
	if err == nil {
		t.Fatalf("expected timeout")
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Fatalf("error leaks api key: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("generate not bounded by timeout")
	}
}
