package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"venue_reputation/internal/domain"
)

// Per-venue keys share the "venue:{id}:" prefix so one DelPrefix drops them all.
func venuePrefix(id string) string        { return "venue:" + id + ":" }
func venueKey(id string) string           { return venuePrefix(id) + "detail" }
func venueReviewsKey(id string) string    { return venuePrefix(id) + "reviews" }
func venueInsightKey(id string) string    { return venuePrefix(id) + "insight" }
func venueMenusKey(id string) string      { return venuePrefix(id) + "menus" }
func venuePromotionsKey(id string) string { return venuePrefix(id) + "promotions" }
func venueImagesKey(id string) string     { return venuePrefix(id) + "images" }

const venueListPrefix = "venues:list:"

func venueListKey(q domain.VenuesQuery) string {
	d, c := "*", "*"
	if q.District != nil {
		d = *q.District
	}
	if q.Category != nil {
		c = *q.Category
	}
	return fmt.Sprintf("%s%s:%s:%d", venueListPrefix, d, c, q.Limit)
}

// readThrough serves key from cache or loads and stores it. Cache errors
// only cost a miss.
func readThrough[T any](ctx context.Context, c domain.Cache, ttl time.Duration, key string, load func() (T, error)) (T, error) {
	var out T
	if c != nil {
		if ok, _ := c.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	if c != nil {
		if err := c.Set(ctx, key, v, int(ttl.Seconds())); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return v, nil
}

// invalidateKey drops a single cached read.
func invalidateKey(ctx context.Context, c domain.Cache, key string) {
	if c == nil {
		return
	}
	if err := c.Del(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}

// invalidateVenue drops every cached read for one venue. Lists are dropped
// only when the venue's score or aggregate moved.
func invalidateVenue(ctx context.Context, c domain.Cache, venueID string, lists bool) {
	if c == nil {
		return
	}
	if err := c.DelPrefix(ctx, venuePrefix(venueID)); err != nil {
		log.Warn().Err(err).Str("venue_id", venueID).Msg("cache invalidation failed")
	}
	if lists {
		if err := c.DelPrefix(ctx, venueListPrefix); err != nil {
			log.Warn().Err(err).Msg("cache invalidation failed")
		}
	}
}
