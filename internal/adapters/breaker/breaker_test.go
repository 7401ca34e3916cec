package breaker_test

import (
	"errors"
	"testing"
	"time"

	"venue_reputation/internal/adapters/breaker"
	"venue_reputation/internal/domain"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := breaker.New[int]("test-open", breaker.Settings{Failures: 2, OpenFor: time.Minute})
	boom := errors.New("boom")
	calls := 0
	fail := func() (int, error) { calls++; return 0, boom }

	for i := 0; i < 2; i++ {
		if _, err := b.Do(fail); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}
	if _, err := b.Do(fail); !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen", err)
	}
	if calls != 2 {
		t.Fatalf("fn ran %d times while open, want 2", calls)
	}
	if b.State() != "open" {
		t.Fatalf("state = %s", b.State())
	}
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	b := breaker.New[int]("test-miss", breaker.Settings{Failures: 1, OpenFor: time.Minute})
	for i := 0; i < 3; i++ {
		if _, err := b.Do(func() (int, error) { return 0, domain.ErrNotFound }); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if b.State() != "closed" {
		t.Fatalf("state = %s, want closed", b.State())
	}
}
