package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kzstats/internal/domain"
)

// Resolver turns textual identifiers into keys
type Resolver interface {
	PlayerID(ctx context.Context, raw string) (uint32, error)
	MapID(ctx context.Context, raw string) (uint16, error)
	ServerID(ctx context.Context, raw string) (uint16, error)
}

// Spec is the set of optional record filters. Empty strings and nil
// pointers mean "not filtered".
type Spec struct {
	Map           string
	Stage         *uint8
	Mode          string
	Player        string
	Server        string
	HasTeleports  *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExcludeBanned bool
}

// Composer builds record predicates from a Spec
type Composer struct {
	resolver Resolver
	logger   *slog.Logger
}

// NewComposer creates a new Composer
func NewComposer(resolver Resolver, logger *slog.Logger) *Composer {
	return &Composer{
		resolver: resolver,
		logger:   logger,
	}
}

// Compose resolves the identifiers in spec and returns the predicate
// fragment. Input that can be checked locally is checked before any
// lookup is issued.
func (c *Composer) Compose(ctx context.Context, spec Spec) (Fragment, error) {
	if err := checkDateRange(spec.CreatedAfter, spec.CreatedBefore); err != nil {
		return Fragment{}, err
	}

	var mode domain.ModeID
	if spec.Mode != "" {
		m, err := domain.ParseMode(spec.Mode)
		if err != nil {
			return Fragment{}, err
		}
		mode = m
	}

	var b Builder

	if spec.Map != "" {
		id, err := c.resolver.MapID(ctx, spec.Map)
		if err != nil {
			return Fragment{}, err
		}
		b.Where("course.map_id", "=", id)
	}
	if spec.Stage != nil {
		b.Where("course.stage", "=", *spec.Stage)
	}
	if spec.Mode != "" {
		b.Where("record.mode_id", "=", uint8(mode))
	}
	if err := c.wherePlayer(ctx, &b, "record.player_id", spec.Player); err != nil {
		return Fragment{}, err
	}
	if spec.Server != "" {
		id, err := c.resolver.ServerID(ctx, spec.Server)
		if err != nil {
			return Fragment{}, err
		}
		b.Where("record.server_id", "=", id)
	}
	if spec.HasTeleports != nil {
		if *spec.HasTeleports {
			b.Where("record.teleports", ">", 0)
		} else {
			b.Where("record.teleports", "=", 0)
		}
	}
	if spec.CreatedAfter != nil {
		b.Where("record.created_on", ">", *spec.CreatedAfter)
	}
	if spec.CreatedBefore != nil {
		b.Where("record.created_on", "<", *spec.CreatedBefore)
	}
	if spec.ExcludeBanned {
		b.Where("player.is_banned", "=", false)
	}

	frag := b.Build()
	c.logger.Debug("composed record filter", "clause", frag.Clause, "args", len(frag.Args))
	return frag, nil
}

func checkDateRange(after, before *time.Time) error {
	if after != nil && before != nil && !after.Before(*before) {
		return fmt.Errorf("%w: created_after %s is not before created_before %s",
			domain.ErrInvalidDateRange, after.Format(time.RFC3339), before.Format(time.RFC3339))
	}
	return nil
}
