// Package service orchestrates resolver, composer and aggregator calls for
// the HTTP layer.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kzstats/internal/config"
	"github.com/kzstats/internal/domain"
	"github.com/kzstats/internal/leaderboard"
	"github.com/kzstats/internal/query"
	"github.com/kzstats/internal/resolver"
)

// Store is everything the service reads from the database
type Store interface {
	resolver.Store
	leaderboard.RecordStore
	CoursesByMap(ctx context.Context, mapID uint16) ([]domain.Course, error)
	PlayerCompletion(ctx context.Context, playerID uint32) (domain.Completion, error)
	Modes(ctx context.Context) ([]domain.Mode, error)
	ModeByID(ctx context.Context, id domain.ModeID) (domain.Mode, error)
	ListMaps(ctx context.Context, frag query.Fragment, limit int) ([]domain.Map, error)
	ListServers(ctx context.Context, frag query.Fragment, limit int) ([]domain.Server, error)
	Ping(ctx context.Context) error
}

// StatsService provides the read operations behind every route
type StatsService struct {
	store      Store
	resolver   *resolver.Resolver
	composer   *query.Composer
	aggregator *leaderboard.Aggregator
	records    config.LimitConfig
	top        config.LimitConfig
	maps       config.LimitConfig
	servers    config.LimitConfig
	logger     *slog.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(store Store, cfg *config.Config, logger *slog.Logger) *StatsService {
	res := resolver.New(store, logger)
	composer := query.NewComposer(res, logger)
	return &StatsService{
		store:      store,
		resolver:   res,
		composer:   composer,
		aggregator: leaderboard.NewAggregator(store, composer, logger),
		records:    cfg.Records,
		top:        cfg.Top,
		maps:       cfg.Maps,
		servers:    cfg.Servers,
		logger:     logger,
	}
}

// Player returns a player with their completion counts
func (s *StatsService) Player(ctx context.Context, ident string) (domain.PlayerProfile, error) {
	player, err := s.resolver.Player(ctx, ident)
	if err != nil {
		return domain.PlayerProfile{}, err
	}

	completion, err := s.store.PlayerCompletion(ctx, player.ID)
	if err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("player completion: %w", err)
	}

	return domain.PlayerProfile{
		PlayerIdentity: player.Identity(),
		IsBanned:       player.IsBanned,
		Completions:    completion,
	}, nil
}

// Map returns a map with its courses
func (s *StatsService) Map(ctx context.Context, ident string) (domain.MapDetails, error) {
	m, err := s.resolver.Map(ctx, ident)
	if err != nil {
		return domain.MapDetails{}, err
	}

	courses, err := s.store.CoursesByMap(ctx, m.ID)
	if err != nil {
		return domain.MapDetails{}, fmt.Errorf("map courses: %w", err)
	}
	if courses == nil {
		courses = []domain.Course{}
	}
	return domain.MapDetails{Map: m, CourseList: courses}, nil
}

// Maps lists maps matching filter, oldest first
func (s *StatsService) Maps(ctx context.Context, filter query.MapFilter, limit int) ([]domain.Map, error) {
	frag, err := s.composer.ComposeMaps(ctx, filter)
	if err != nil {
		return nil, err
	}

	maps, err := s.store.ListMaps(ctx, frag, s.maps.Clamp(limit))
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("list maps: %w", domain.ErrNotFound)
	}
	return maps, nil
}

// Servers lists servers matching filter
func (s *StatsService) Servers(ctx context.Context, filter query.ServerFilter, limit int) ([]domain.Server, error) {
	frag, err := s.composer.ComposeServers(ctx, filter)
	if err != nil {
		return nil, err
	}

	servers, err := s.store.ListServers(ctx, frag, s.servers.Clamp(limit))
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("list servers: %w", domain.ErrNotFound)
	}
	return servers, nil
}

// Server returns a server with its owner and approver
func (s *StatsService) Server(ctx context.Context, ident string) (domain.Server, error) {
	return s.resolver.Server(ctx, ident)
}

// Modes lists every mode
func (s *StatsService) Modes(ctx context.Context) ([]domain.Mode, error) {
	modes, err := s.store.Modes(ctx)
	if err != nil {
		return nil, err
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("modes: %w", domain.ErrNotFound)
	}
	return modes, nil
}

// Mode returns the mode named by ident
func (s *StatsService) Mode(ctx context.Context, ident string) (domain.Mode, error) {
	id, err := domain.ParseMode(ident)
	if err != nil {
		return domain.Mode{}, err
	}
	return s.store.ModeByID(ctx, id)
}

// Records lists the newest records matching spec
func (s *StatsService) Records(ctx context.Context, spec query.Spec, limit int) ([]domain.Record, error) {
	frag, err := s.composer.Compose(ctx, spec)
	if err != nil {
		return nil, err
	}

	sql, args := query.ListRecordsSQL(frag, s.records.Clamp(limit))
	records, err := s.store.SelectRecords(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("list records: %w", domain.ErrNotFound)
	}
	return records, nil
}

// Record returns a single record
func (s *StatsService) Record(ctx context.Context, id uint32) (domain.Record, error) {
	return s.store.RecordByID(ctx, id)
}

// MapTop returns the personal-best leaderboard of a map. Without a stage
// the main course is used. Banned players are left out.
func (s *StatsService) MapTop(ctx context.Context, mapIdent string, spec query.Spec, limit int) ([]domain.LeaderboardEntry, error) {
	spec.Map = mapIdent
	if spec.Stage == nil {
		main := uint8(0)
		spec.Stage = &main
	}
	spec.ExcludeBanned = true

	pbs, err := s.aggregator.PersonalBests(ctx, leaderboard.Scope{Spec: spec, Limit: s.top.Clamp(limit)})
	if err != nil {
		return nil, err
	}
	return domain.Ranked(pbs), nil
}

// PlayerTop returns a player's personal bests, fastest first
func (s *StatsService) PlayerTop(ctx context.Context, playerIdent string, spec query.Spec, limit int) ([]domain.Record, error) {
	spec.Player = playerIdent
	return s.aggregator.PersonalBests(ctx, leaderboard.Scope{Spec: spec, Limit: s.top.Clamp(limit)})
}

// Place returns a record's rank on its leaderboard
func (s *StatsService) Place(ctx context.Context, recordID uint32) (uint32, error) {
	return s.aggregator.Rank(ctx, recordID)
}

// Ready checks the store is reachable
func (s *StatsService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
