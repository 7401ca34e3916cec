package shared

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"venue_reputation/internal/adapters/gemini"
	"venue_reputation/internal/adapters/places"
	redisad "venue_reputation/internal/adapters/redis"
	"venue_reputation/internal/domain"
	mysqlrepo "venue_reputation/internal/storage/mysql"
)

// Deps are the process-wide collaborators every command builds its services
// from. Generator and Lookup are nil when their API key is not configured.
type Deps struct {
	DB        *sql.DB
	Store     *mysqlrepo.Repo
	Cache     *redisad.Cache
	Generator domain.TextGenerator
	Lookup    domain.RatingLookup
}

// Open connects to MySQL (fatal on failure) and Redis (a warning only: the
// cache degrades to misses) and builds the outbound clients.
func Open(ctx context.Context, cfg Config) (*Deps, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	log.Info().Msg("database connection ok")

	d := &Deps{DB: db, Store: mysqlrepo.New(db)}

	d.Cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := d.Cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; serving without cache")
	}

	if gen, err := gemini.New(cfg.GeminiBase, cfg.GeminiKey, gemini.Options{Model: cfg.GeminiModel, Timeout: cfg.GeminiTimeout}); err != nil {
		log.Warn().Err(err).Msg("insight generation disabled")
	} else {
		d.Generator = gen
	}
	if pl, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS, cfg.PlacesTimeout); err != nil {
		log.Warn().Err(err).Msg("rating lookup disabled")
	} else {
		d.Lookup = pl
	}
	return d, nil
}

func (d *Deps) Close() {
	if d.Cache != nil {
		_ = d.Cache.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
