// Package leaderboard computes personal-best leaderboards and the rank of a
// record within one.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/kzstats/internal/domain"
	"github.com/kzstats/internal/query"
)

// RecordStore runs record queries built from the shared projection
type RecordStore interface {
	SelectRecords(ctx context.Context, sql string, args ...any) ([]domain.Record, error)
	RecordByID(ctx context.Context, id uint32) (domain.Record, error)
}

// Composer turns a filter spec into a predicate fragment
type Composer interface {
	Compose(ctx context.Context, spec query.Spec) (query.Fragment, error)
}

// Scope narrows a personal-best query. Limit 0 means unlimited.
type Scope struct {
	query.Spec
	Limit int
}

// Aggregator computes personal bests
type Aggregator struct {
	store    RecordStore
	composer Composer
	logger   *slog.Logger
}

// NewAggregator creates a new Aggregator
func NewAggregator(store RecordStore, composer Composer, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		composer: composer,
		logger:   logger,
	}
}

// PersonalBests returns each player's fastest record per course, mode and
// teleport class within scope, ordered by time, then stage, then id.
// Equal times within a group go to the lowest record id. An empty result
// is domain.ErrNotFound.
func (a *Aggregator) PersonalBests(ctx context.Context, scope Scope) ([]domain.Record, error) {
	frag, err := a.composer.Compose(ctx, scope.Spec)
	if err != nil {
		return nil, err
	}

	sql, args := PersonalBestsSQL(frag, scope.Limit)
	records, err := a.store.SelectRecords(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select personal bests: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("personal bests: %w", domain.ErrNotFound)
	}
	return records, nil
}

// Rank returns the 1-based position of a record on the leaderboard for its
// map, stage, mode and teleport class. Only personal bests of players who
// are not banned have a rank.
func (a *Aggregator) Rank(ctx context.Context, recordID uint32) (uint32, error) {
	record, err := a.store.RecordByID(ctx, recordID)
	if err != nil {
		return 0, fmt.Errorf("fetch record %d: %w", recordID, err)
	}

	stage := record.Stage
	hasTeleports := record.Class().HasTeleports()
	scope := Scope{Spec: query.Spec{
		Map:           strconv.FormatUint(uint64(record.MapID), 10),
		Stage:         &stage,
		Mode:          strconv.FormatUint(uint64(record.ModeID), 10),
		HasTeleports:  &hasTeleports,
		ExcludeBanned: true,
	}}

	pbs, err := a.PersonalBests(ctx, scope)
	if err != nil {
		return 0, err
	}

	rank, ok := placeOf(pbs, recordID)
	if !ok {
		a.logger.Debug("record has no rank", "record_id", recordID, "player_id", record.PlayerID)
		return 0, fmt.Errorf("record %d is not a personal best: %w", recordID, domain.ErrNotFound)
	}
	return rank, nil
}

func placeOf(records []domain.Record, id uint32) (uint32, bool) {
	for i, r := range records {
		if r.ID == id {
			return uint32(i + 1), true
		}
	}
	return 0, false
}
