package query

import (
	"context"
	"strings"
	"time"
)

// MapFilter is the set of optional map listing filters
type MapFilter struct {
	Name          string
	Courses       *uint8
	Validated     *bool
	CreatedBy     string
	ApprovedBy    string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// ServerFilter is the set of optional server listing filters
type ServerFilter struct {
	Name       string
	OwnedBy    string
	ApprovedBy string
}

// ComposeMaps builds map listing predicates. Player filters accept any
// player identifier form.
func (c *Composer) ComposeMaps(ctx context.Context, f MapFilter) (Fragment, error) {
	if err := checkDateRange(f.CreatedAfter, f.CreatedBefore); err != nil {
		return Fragment{}, err
	}

	var b Builder
	if name := strings.TrimSpace(f.Name); name != "" {
		b.Where("map.name", "ILIKE", ContainsPattern(name))
	}
	if f.Courses != nil {
		b.Where("map.courses", "=", *f.Courses)
	}
	if f.Validated != nil {
		b.Where("map.validated", "=", *f.Validated)
	}
	if err := c.wherePlayer(ctx, &b, "map.created_by", f.CreatedBy); err != nil {
		return Fragment{}, err
	}
	if err := c.wherePlayer(ctx, &b, "map.approved_by", f.ApprovedBy); err != nil {
		return Fragment{}, err
	}
	if f.CreatedAfter != nil {
		b.Where("map.created_on", ">", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		b.Where("map.created_on", "<", *f.CreatedBefore)
	}

	frag := b.Build()
	c.logger.Debug("composed map filter", "clause", frag.Clause, "args", len(frag.Args))
	return frag, nil
}

// ComposeServers builds server listing predicates.
func (c *Composer) ComposeServers(ctx context.Context, f ServerFilter) (Fragment, error) {
	var b Builder
	if name := strings.TrimSpace(f.Name); name != "" {
		b.Where("server.name", "ILIKE", ContainsPattern(name))
	}
	if err := c.wherePlayer(ctx, &b, "server.owned_by", f.OwnedBy); err != nil {
		return Fragment{}, err
	}
	if err := c.wherePlayer(ctx, &b, "server.approved_by", f.ApprovedBy); err != nil {
		return Fragment{}, err
	}

	frag := b.Build()
	c.logger.Debug("composed server filter", "clause", frag.Clause, "args", len(frag.Args))
	return frag, nil
}

func (c *Composer) wherePlayer(ctx context.Context, b *Builder, column, raw string) error {
	if raw == "" {
		return nil
	}
	id, err := c.resolver.PlayerID(ctx, raw)
	if err != nil {
		return err
	}
	b.Where(column, "=", id)
	return nil
}
