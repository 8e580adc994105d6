package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kzstats/internal/domain"
)

// Store is the row lookup surface the resolver needs. Name lookups match a
// case-insensitive substring and return the first row by id; a miss
// returns domain.ErrNotFound.
type Store interface {
	PlayerByID(ctx context.Context, id uint32) (domain.Player, error)
	PlayerByName(ctx context.Context, name string) (domain.Player, error)
	MapByID(ctx context.Context, id uint16) (domain.Map, error)
	MapByName(ctx context.Context, name string) (domain.Map, error)
	ServerByID(ctx context.Context, id uint16) (domain.Server, error)
	ServerByName(ctx context.Context, name string) (domain.Server, error)
}

// Resolver resolves identifiers against the store
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// New creates a new Resolver
func New(store Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger,
	}
}

// Player resolves raw to a player row. Id forms still do a row lookup to
// confirm the player exists.
func (r *Resolver) Player(ctx context.Context, raw string) (domain.Player, error) {
	ident := ParsePlayerIdentifier(raw)
	id, isID, err := ident.AccountID()
	if err != nil {
		return domain.Player{}, err
	}
	if !isID {
		player, err := r.store.PlayerByName(ctx, ident.Text)
		if err != nil {
			return domain.Player{}, fmt.Errorf("resolve player %q: %w", raw, err)
		}
		return player, nil
	}

	player, err := r.store.PlayerByID(ctx, id)
	if err != nil {
		return domain.Player{}, fmt.Errorf("resolve player %d: %w", id, err)
	}
	r.logger.Debug("resolved player", "kind", ident.Kind.String(), "player_id", id)
	return player, nil
}

// PlayerID resolves raw to an account id. Only names touch the store.
func (r *Resolver) PlayerID(ctx context.Context, raw string) (uint32, error) {
	ident := ParsePlayerIdentifier(raw)
	id, isID, err := ident.AccountID()
	if err != nil {
		return 0, err
	}
	if isID {
		return id, nil
	}

	player, err := r.store.PlayerByName(ctx, ident.Text)
	if err != nil {
		return 0, fmt.Errorf("resolve player %q: %w", raw, err)
	}
	r.logger.Debug("resolved player name", "name", ident.Text, "player_id", player.ID)
	return player.ID, nil
}

// Map resolves raw to a map row.
func (r *Resolver) Map(ctx context.Context, raw string) (domain.Map, error) {
	ident, err := ParseMapIdentifier(raw)
	if err != nil {
		return domain.Map{}, err
	}

	var m domain.Map
	if ident.IsName {
		m, err = r.store.MapByName(ctx, ident.Name)
	} else {
		m, err = r.store.MapByID(ctx, ident.ID)
	}
	if err != nil {
		return domain.Map{}, fmt.Errorf("resolve map %q: %w", raw, err)
	}
	return m, nil
}

// MapID resolves raw to a map id. Numeric ids are looked up too, so an
// unknown id fails with domain.ErrNotFound.
func (r *Resolver) MapID(ctx context.Context, raw string) (uint16, error) {
	m, err := r.Map(ctx, raw)
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// Server resolves raw to a server row.
func (r *Resolver) Server(ctx context.Context, raw string) (domain.Server, error) {
	ident, err := ParseServerIdentifier(raw)
	if err != nil {
		return domain.Server{}, err
	}

	var s domain.Server
	if ident.IsName {
		s, err = r.store.ServerByName(ctx, ident.Name)
	} else {
		s, err = r.store.ServerByID(ctx, ident.ID)
	}
	if err != nil {
		return domain.Server{}, fmt.Errorf("resolve server %q: %w", raw, err)
	}
	return s, nil
}

// ServerID resolves raw to a server id. Numeric ids are returned as is.
func (r *Resolver) ServerID(ctx context.Context, raw string) (uint16, error) {
	ident, err := ParseServerIdentifier(raw)
	if err != nil {
		return 0, err
	}
	if !ident.IsName {
		return ident.ID, nil
	}
	s, err := r.store.ServerByName(ctx, ident.Name)
	if err != nil {
		return 0, fmt.Errorf("resolve server %q: %w", raw, err)
	}
	return s.ID, nil
}
