package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"venue_reputation/internal/adapters/observability"
	"venue_reputation/internal/domain"
	"venue_reputation/internal/validation"
)

// OwnershipGuard gates every venue-scoped mutation. It looks membership up on
// each call; nothing is cached and nothing is taken from the session.
type OwnershipGuard struct {
	owners domain.OwnerRepository
}

func NewOwnershipGuard(owners domain.OwnerRepository) *OwnershipGuard {
	return &OwnershipGuard{owners: owners}
}

// IsOwner reports membership. A missing row is false; a failed lookup is an
// upstream error and never counts as authorized.
func (g *OwnershipGuard) IsOwner(ctx context.Context, userID, venueID string) (bool, error) {
	ok, err := g.owners.IsOwner(ctx, userID, venueID)
	if err != nil {
		return false, classify("ownership.lookup", venueID, err)
	}
	return ok, nil
}

// Authorize is for venue-level operations where the venue's existence is
// public: non-owners get ErrForbidden.
func (g *OwnershipGuard) Authorize(ctx context.Context, op, userID, venueID string) error {
	return g.check(ctx, op, userID, venueID, domain.ErrForbidden)
}

// AuthorizeScoped is for update/delete of an entity addressed by id:
// non-owners get ErrNotFound so the entity's existence is not confirmed.
func (g *OwnershipGuard) AuthorizeScoped(ctx context.Context, op, userID, venueID string) error {
	return g.check(ctx, op, userID, venueID, domain.ErrNotFound)
}

func (g *OwnershipGuard) check(ctx context.Context, op, userID, venueID string, denied error) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	ok, err := g.IsOwner(ctx, userID, venueID)
	if err != nil {
		return err
	}
	if !ok {
		observability.ObserveDenied(op)
		log.Warn().Str("op", op).Str("user_id", userID).Str("venue_id", venueID).Msg("ownership denied")
		return denied
	}
	return nil
}

func (g *OwnershipGuard) ListOwnedVenues(ctx context.Context, userID string) ([]domain.Venue, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	vs, err := g.owners.ListOwnedVenues(ctx, userID)
	if err != nil {
		return nil, classify("ownership.list", "", err)
	}
	return vs, nil
}

// GrantOwnership is the admin action that creates a membership row.
func (g *OwnershipGuard) GrantOwnership(ctx context.Context, req GrantOwnershipRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	role := req.Role
	if role == "" {
		role = "owner"
	}
	err := g.owners.CreateOwner(ctx, domain.Owner{UserID: req.UserID, VenueID: req.VenueID, Role: role})
	return classify("ownership.grant", req.VenueID, err)
}
