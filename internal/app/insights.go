package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"venue_reputation/internal/adapters/observability"
	"venue_reputation/internal/domain"
	"venue_reputation/internal/validation"
)

var errNoGenerator = errors.New("no text generator configured")

type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeErrored   Outcome = "errored"
)

// InsightStore is what insight synthesis reads and writes.
type InsightStore interface {
	domain.VenueRepository
	domain.ReviewRepository
	domain.MenuRepository
	domain.InsightRepository
}

type BatchResult struct {
	Processed int `json:"processed"`
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
}

func (r BatchResult) Succeeded() int { return r.Generated + r.Skipped }

// InsightService generates each venue's bilingual insight at most once.
// Existing rows are returned untouched; Regenerate is the only overwrite.
// Within one process concurrent requests for a venue share one generation,
// and across processes the unique venue key plus insert-if-absent keeps a
// single row.
type InsightService struct {
	store    InsightStore
	gen      domain.TextGenerator
	guard    *OwnershipGuard
	cache    domain.Cache
	cacheTTL time.Duration
	sf       singleflight.Group
	now      func() time.Time
	newID    func() string
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewInsightService(st InsightStore, gen domain.TextGenerator, g *OwnershipGuard, c domain.Cache, ttl time.Duration) *InsightService {
	return &InsightService{
		store:    st,
		gen:      gen,
		guard:    g,
		cache:    c,
		cacheTTL: ttl,
		now:      time.Now,
		newID:    uuid.NewString,
		sleep:    sleepCtx,
	}
}

// Get is the public read; nil when the venue has no insight yet.
func (s *InsightService) Get(ctx context.Context, venueID string) (*InsightView, error) {
	return readThrough(ctx, s.cache, s.cacheTTL, venueInsightKey(venueID), func() (*InsightView, error) {
		in, err := s.store.GetInsight(ctx, venueID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, classify("insight.get", venueID, err)
		}
		v := MapInsight(in)
		return &v, nil
	})
}

// Trigger is the owner-gated on-demand entry point.
func (s *InsightService) Trigger(ctx context.Context, userID string, req InsightTriggerRequest) (InsightView, error) {
	if userID == "" {
		return InsightView{}, domain.ErrUnauthenticated
	}
	if err := validation.Struct(req); err != nil {
		return InsightView{}, err
	}
	if err := s.guard.Authorize(ctx, "insight.trigger", userID, req.VenueID); err != nil {
		return InsightView{}, err
	}
	if req.Regenerate {
		return s.Regenerate(ctx, req.VenueID)
	}
	return s.Ensure(ctx, req.VenueID)
}

// Ensure returns the venue's insight, generating it only when none exists.
func (s *InsightService) Ensure(ctx context.Context, venueID string) (InsightView, error) {
	in, _, err := s.ensure(ctx, venueID)
	if err != nil {
		return InsightView{}, err
	}
	return MapInsight(in), nil
}

// Regenerate always calls the generator and replaces the stored fields.
func (s *InsightService) Regenerate(ctx context.Context, venueID string) (InsightView, error) {
	v, err, _ := s.sf.Do("regenerate:"+venueID, func() (any, error) {
		fields, err := s.synthesize(ctx, venueID)
		if err != nil {
			return nil, err
		}
		stored, err := s.store.UpsertInsight(ctx, domain.Insight{
			ID:            s.newID(),
			VenueID:       venueID,
			InsightFields: fields,
			LastUpdated:   s.now().UTC(),
		})
		if err != nil {
			return nil, classify("insight.store", venueID, err)
		}
		invalidateKey(ctx, s.cache, venueInsightKey(venueID))
		return stored, nil
	})
	if err != nil {
		observability.ObserveInsight(string(OutcomeErrored))
		return InsightView{}, err
	}
	observability.ObserveInsight(string(OutcomeGenerated))
	return MapInsight(v.(domain.Insight)), nil
}

type ensured struct {
	insight domain.Insight
	created bool
}

func (s *InsightService) ensure(ctx context.Context, venueID string) (domain.Insight, Outcome, error) {
	in, err := s.store.GetInsight(ctx, venueID)
	if err == nil {
		observability.ObserveInsight(string(OutcomeSkipped))
		return in, OutcomeSkipped, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		observability.ObserveInsight(string(OutcomeErrored))
		return domain.Insight{}, OutcomeErrored, classify("insight.lookup", venueID, err)
	}

	v, err, _ := s.sf.Do("ensure:"+venueID, func() (any, error) {
		// a flight that finished just before ours may have stored it
		if in, err := s.store.GetInsight(ctx, venueID); err == nil {
			return ensured{insight: in}, nil
		}
		fields, err := s.synthesize(ctx, venueID)
		if err != nil {
			return nil, err
		}
		stored, created, err := s.store.InsertInsightIfAbsent(ctx, domain.Insight{
			ID:            s.newID(),
			VenueID:       venueID,
			InsightFields: fields,
			LastUpdated:   s.now().UTC(),
		})
		if err != nil {
			return nil, classify("insight.store", venueID, err)
		}
		if created {
			invalidateKey(ctx, s.cache, venueInsightKey(venueID))
		}
		return ensured{insight: stored, created: created}, nil
	})
	if err != nil {
		observability.ObserveInsight(string(OutcomeErrored))
		return domain.Insight{}, OutcomeErrored, err
	}
	e := v.(ensured)
	if !e.created {
		observability.ObserveInsight(string(OutcomeSkipped))
		return e.insight, OutcomeSkipped, nil
	}
	observability.ObserveInsight(string(OutcomeGenerated))
	return e.insight, OutcomeGenerated, nil
}

// synthesize gathers context, calls the generator once and parses the
// result. Nothing is written here.
func (s *InsightService) synthesize(ctx context.Context, venueID string) (domain.InsightFields, error) {
	if s.gen == nil {
		return domain.InsightFields{}, classify("insight.generate", venueID, errNoGenerator)
	}
	venue, err := s.store.GetVenue(ctx, venueID)
	if err != nil {
		return domain.InsightFields{}, classify("insight.context", venueID, err)
	}
	menus, err := s.store.ListMenus(ctx, venueID)
	if err != nil {
		return domain.InsightFields{}, classify("insight.context", venueID, err)
	}
	reviews, err := s.store.ListReviews(ctx, venueID, promptReviewLimit)
	if err != nil {
		return domain.InsightFields{}, classify("insight.context", venueID, err)
	}

	text, err := s.gen.Generate(ctx, BuildInsightPrompt(venue, menus, reviews))
	if err != nil {
		return domain.InsightFields{}, classify("insight.generate", venueID, err)
	}
	fields, err := ParseInsightText(text)
	if err != nil {
		return domain.InsightFields{}, classify("insight.parse", venueID, err)
	}
	return fields, nil
}

// GenerateAll walks every venue sequentially, waiting delay after each
// generation attempt. A venue's failure is logged and counted; only a
// cancelled context or a failed venue listing stops the run.
func (s *InsightService) GenerateAll(ctx context.Context, delay time.Duration) (BatchResult, error) {
	venues, err := s.store.ListVenues(ctx, domain.VenuesQuery{})
	if err != nil {
		return BatchResult{}, classify("insight.batch", "", err)
	}
	log.Info().Int("venues", len(venues)).Msg("insight batch started")

	var res BatchResult
	for i, v := range venues {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Processed++
		_, outcome, err := s.ensure(ctx, v.ID)
		ev := log.Info()
		switch outcome {
		case OutcomeGenerated:
			res.Generated++
		case OutcomeSkipped:
			res.Skipped++
		default:
			res.Errored++
			ev = log.Warn().Err(err)
		}
		ev.Str("venue_id", v.ID).Str("venue", v.Name).Str("result", string(outcome)).Msg("insight batch item")

		if outcome != OutcomeSkipped && i < len(venues)-1 {
			if err := s.sleep(ctx, delay); err != nil {
				return res, err
			}
		}
	}
	log.Info().
		Int("processed", res.Processed).
		Int("generated", res.Generated).
		Int("skipped", res.Skipped).
		Int("errored", res.Errored).
		Msg("insight batch finished")
	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
