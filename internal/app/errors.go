package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"venue_reputation/internal/domain"
)

// passthrough are the kinds callers act on directly; everything else coming
// out of storage or a collaborator is an upstream failure.
var passthrough = []error{
	domain.ErrNotFound,
	domain.ErrConflict,
	domain.ErrValidation,
	domain.ErrForbidden,
	domain.ErrUnauthenticated,
}

// classify translates err at the service boundary and logs upstream failures
// with their operation and venue. Causes never reach clients.
func classify(op, venueID string, err error) error {
	if err == nil {
		return nil
	}
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	for _, k := range passthrough {
		if errors.Is(err, k) {
			return err
		}
	}
	log.Error().Str("op", op).Str("venue_id", venueID).Err(err).Msg("upstream failure")
	return domain.Upstream(op, venueID, err)
}
