package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kzstats/internal/domain"
	"github.com/smartystreets/goconvey/convey"
)

type stubResolver struct {
	calls int
	err   error
}

func (s *stubResolver) PlayerID(_ context.Context, raw string) (uint32, error) {
	s.calls++
	return 322356345, s.err
}

func (s *stubResolver) MapID(_ context.Context, raw string) (uint16, error) {
	s.calls++
	return 992, s.err
}

func (s *stubResolver) ServerID(_ context.Context, raw string) (uint16, error) {
	s.calls++
	return 999, s.err
}

func newComposer() (*Composer, *stubResolver) {
	r := &stubResolver{}
	return NewComposer(r, slog.New(slog.NewTextHandler(io.Discard, nil))), r
}

func ptr[T any](v T) *T { return &v }

// applyMask sets the filters selected by the low seven bits of mask.
func applyMask(mask int) Spec {
	after := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var s Spec
	if mask&1 != 0 {
		s.Map = "lionharder"
	}
	if mask&2 != 0 {
		s.Stage = ptr(uint8(0))
	}
	if mask&4 != 0 {
		s.Mode = "kzt"
	}
	if mask&8 != 0 {
		s.Player = "AlphaKeks"
	}
	if mask&16 != 0 {
		s.Server = "12"
	}
	if mask&32 != 0 {
		s.HasTeleports = ptr(false)
	}
	if mask&64 != 0 {
		s.CreatedAfter = &after
		s.CreatedBefore = ptr(after.Add(24 * time.Hour))
	}
	return s
}

func TestBuilder(t *testing.T) {
	convey.Convey("An empty builder emits nothing", t, func() {
		var b Builder
		frag := b.Build()
		convey.So(frag.Clause, convey.ShouldBeEmpty)
		convey.So(frag.Args, convey.ShouldBeEmpty)
		convey.So(frag.Next(), convey.ShouldEqual, 1)
	})

	convey.Convey("Predicates are joined and numbered in order", t, func() {
		var b Builder
		b.Where("a.x", "=", 1).Where("a.y", ">", "two").Where("a.z", "<", 3.5)
		frag := b.Build()
		convey.So(frag.Clause, convey.ShouldEqual, " WHERE a.x = $1 AND a.y > $2 AND a.z < $3")
		convey.So(frag.Args, convey.ShouldResemble, []any{1, "two", 3.5})
		convey.So(frag.Next(), convey.ShouldEqual, 4)
	})
}

func TestComposeClauseDiscipline(t *testing.T) {
	convey.Convey("For every subset of filters", t, func() {
		c, _ := newComposer()
		for mask := 0; mask < 128; mask++ {
			frag, err := c.Compose(context.Background(), applyMask(mask))
			convey.So(err, convey.ShouldBeNil)

			if mask == 0 {
				convey.So(frag.Clause, convey.ShouldBeEmpty)
				convey.So(frag.Args, convey.ShouldBeEmpty)
				continue
			}
			convey.So(strings.HasPrefix(frag.Clause, " WHERE "), convey.ShouldBeTrue)
			convey.So(strings.Count(frag.Clause, "WHERE"), convey.ShouldEqual, 1)
			convey.So(strings.Count(frag.Clause, " AND "), convey.ShouldEqual, len(frag.Args)-1)
			convey.So(strings.Count(frag.Clause, "$"), convey.ShouldEqual, len(frag.Args))
		}
	})
}

func TestComposeScenarios(t *testing.T) {
	convey.Convey("Given a composer", t, func() {
		c, r := newComposer()
		ctx := context.Background()

		convey.Convey("Stage and teleports produce two bound predicates", func() {
			frag, err := c.Compose(ctx, Spec{Stage: ptr(uint8(2)), HasTeleports: ptr(true)})
			convey.So(err, convey.ShouldBeNil)
			convey.So(frag.Clause, convey.ShouldEqual, " WHERE course.stage = $1 AND record.teleports > $2")
			convey.So(frag.Args, convey.ShouldResemble, []any{uint8(2), 0})
			convey.So(r.calls, convey.ShouldEqual, 0)
		})

		convey.Convey("Pro runs bind zero with equality", func() {
			frag, err := c.Compose(ctx, Spec{HasTeleports: ptr(false)})
			convey.So(err, convey.ShouldBeNil)
			convey.So(frag.Clause, convey.ShouldEqual, " WHERE record.teleports = $1")
		})

		convey.Convey("Every filter appears in a fixed order", func() {
			frag, err := c.Compose(ctx, applyMask(127))
			convey.So(err, convey.ShouldBeNil)
			convey.So(frag.Clause, convey.ShouldEqual, " WHERE course.map_id = $1 AND course.stage = $2"+
				" AND record.mode_id = $3 AND record.player_id = $4 AND record.server_id = $5"+
				" AND record.teleports = $6 AND record.created_on > $7 AND record.created_on < $8")
			convey.So(frag.Args[0], convey.ShouldEqual, uint16(992))
			convey.So(frag.Args[2], convey.ShouldEqual, uint8(domain.ModeKZTimer))
			convey.So(frag.Args[3], convey.ShouldEqual, uint32(322356345))
			convey.So(frag.Args[4], convey.ShouldEqual, uint16(999))
		})

		convey.Convey("Banned players can be excluded", func() {
			frag, err := c.Compose(ctx, Spec{Mode: "vnl", ExcludeBanned: true})
			convey.So(err, convey.ShouldBeNil)
			convey.So(frag.Clause, convey.ShouldEqual, " WHERE record.mode_id = $1 AND player.is_banned = $2")
			convey.So(frag.Args, convey.ShouldResemble, []any{uint8(202), false})
		})

		convey.Convey("Identifier text never reaches the clause", func() {
			frag, err := c.Compose(ctx, Spec{Map: "x' OR 1=1 --", Player: "'; DROP TABLE records; --"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(frag.Clause, convey.ShouldNotContainSubstring, "'")
			convey.So(frag.Clause, convey.ShouldNotContainSubstring, "DROP")
		})

		convey.Convey("Inverted or empty date ranges fail before any lookup", func() {
			for _, base := range []time.Time{
				time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC),
				time.Unix(0, 0).UTC(),
				time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
			} {
				after := base.Add(time.Second)
				_, err := c.Compose(ctx, Spec{Map: "lionharder", CreatedAfter: &after, CreatedBefore: &base})
				convey.So(errors.Is(err, domain.ErrInvalidDateRange), convey.ShouldBeTrue)

				_, err = c.Compose(ctx, Spec{CreatedAfter: &base, CreatedBefore: &base})
				convey.So(errors.Is(err, domain.ErrInvalidDateRange), convey.ShouldBeTrue)
			}
			convey.So(r.calls, convey.ShouldEqual, 0)
		})

		convey.Convey("Unknown modes fail before any lookup", func() {
			_, err := c.Compose(ctx, Spec{Map: "lionharder", Mode: "bhop"})
			convey.So(errors.Is(err, domain.ErrInvalidInput), convey.ShouldBeTrue)
			convey.So(r.calls, convey.ShouldEqual, 0)
		})

		convey.Convey("Resolver failures propagate", func() {
			r.err = domain.ErrNotFound
			_, err := c.Compose(ctx, Spec{Player: "nobody"})
			convey.So(errors.Is(err, domain.ErrNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestRecordSQL(t *testing.T) {
	convey.Convey("The limit is bound after the filter arguments", t, func() {
		var b Builder
		b.Where("record.mode_id", "=", uint8(200))
		sql, args := ListRecordsSQL(b.Build(), 100)
		convey.So(sql, convey.ShouldContainSubstring, " WHERE record.mode_id = $1 ORDER BY record.created_on DESC")
		convey.So(sql, convey.ShouldEndWith, "LIMIT $2")
		convey.So(args, convey.ShouldResemble, []any{uint8(200), 100})
	})

	convey.Convey("Without filters the limit is $1", t, func() {
		sql, args := ListRecordsSQL(Fragment{}, 5)
		convey.So(sql, convey.ShouldEndWith, "LIMIT $1")
		convey.So(args, convey.ShouldResemble, []any{5})
	})

	convey.Convey("Wildcards in a search term are escaped", t, func() {
		convey.So(ContainsPattern("lion"), convey.ShouldEqual, "%lion%")
		convey.So(ContainsPattern("kz_100%"), convey.ShouldEqual, `%kz\_100\%%`)
		convey.So(ContainsPattern(`a\b`), convey.ShouldEqual, `%a\\b%`)
	})
}

func TestComposeListings(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given map listing filters", t, func() {
		c, r := newComposer()

		convey.Convey("No filters produce no clause", func() {
			frag, err := c.ComposeMaps(ctx, MapFilter{Name: "  "})
			convey.So(err, convey.ShouldBeNil)
			convey.So(frag.Clause, convey.ShouldBeEmpty)
			convey.So(r.calls, convey.ShouldEqual, 0)
		})

		convey.Convey("Every filter binds its value in order", func() {
			after := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
			before := after.AddDate(1, 0, 0)
			frag, err := c.ComposeMaps(ctx, MapFilter{
				Name:          "kz_",
				Courses:       ptr(uint8(3)),
				Validated:     ptr(true),
				CreatedBy:     "AlphaKeks",
				ApprovedBy:    "ID_1:1:161178172",
				CreatedAfter:  &after,
				CreatedBefore: &before,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(frag.Clause, convey.ShouldEqual,
				" WHERE map.name ILIKE $1 AND map.courses = $2 AND map.validated = $3"+
					" AND map.created_by = $4 AND map.approved_by = $5"+
					" AND map.created_on > $6 AND map.created_on < $7")
			convey.So(frag.Args, convey.ShouldResemble, []any{
				`%kz\_%`, uint8(3), true, uint32(322356345), uint32(322356345), after, before,
			})
			convey.So(r.calls, convey.ShouldEqual, 2)
		})

		convey.Convey("An inverted date range fails before any lookup", func() {
			after := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
			_, err := c.ComposeMaps(ctx, MapFilter{CreatedBy: "AlphaKeks", CreatedAfter: &after, CreatedBefore: &after})
			convey.So(errors.Is(err, domain.ErrInvalidDateRange), convey.ShouldBeTrue)
			convey.So(r.calls, convey.ShouldEqual, 0)
		})

		convey.Convey("Resolver failures are returned", func() {
			r.err = domain.ErrNotFound
			_, err := c.ComposeMaps(ctx, MapFilter{ApprovedBy: "nobody"})
			convey.So(errors.Is(err, domain.ErrNotFound), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given server listing filters", t, func() {
		c, r := newComposer()

		frag, err := c.ComposeServers(ctx, ServerFilter{Name: "hikari", OwnedBy: "AlphaKeks", ApprovedBy: "42"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(frag.Clause, convey.ShouldEqual,
			" WHERE server.name ILIKE $1 AND server.owned_by = $2 AND server.approved_by = $3")
		convey.So(frag.Args, convey.ShouldResemble, []any{"%hikari%", uint32(322356345), uint32(322356345)})
		convey.So(r.calls, convey.ShouldEqual, 2)
	})
}
