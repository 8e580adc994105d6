package identity_test

import (
	"errors"
	"math"
	"testing"

	"github.com/kzstats/internal/identity"
	"github.com/smartystreets/goconvey/convey"
)

var sampleAccountIDs = []uint32{
	0, 1, 2, 3, 42, 255, 256, 65535, 65536,
	161178172, 322356345, 1 << 30, math.MaxUint32 - 1, math.MaxUint32,
}

func TestRoundTrips(t *testing.T) {
	convey.Convey("Given account ids across the 32-bit range", t, func() {
		convey.Convey("Global ids convert back to the same account id", func() {
			for _, id := range sampleAccountIDs {
				back, err := identity.GlobalIDToAccountID(identity.AccountIDToGlobalID(id))
				if id == 0 {
					// 0 maps to MagicOffset itself, which is not a valid global id.
					convey.So(err, convey.ShouldNotBeNil)
					continue
				}
				convey.So(err, convey.ShouldBeNil)
				convey.So(back, convey.ShouldEqual, id)
			}
		})

		convey.Convey("Legacy ids convert back to the same account id", func() {
			for _, id := range sampleAccountIDs {
				back, ok := identity.LegacyIDToAccountID(identity.AccountIDToLegacyID(id))
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(back, convey.ShouldEqual, id)
			}
		})

		convey.Convey("Every value in a dense stride round-trips", func() {
			for id := uint64(1); id <= math.MaxUint32; id += 104729 * 7 {
				acc := uint32(id)
				back, err := identity.GlobalIDToAccountID(identity.AccountIDToGlobalID(acc))
				convey.So(err, convey.ShouldBeNil)
				convey.So(back, convey.ShouldEqual, acc)

				legacy, ok := identity.LegacyIDToAccountID(identity.AccountIDToLegacyID(acc))
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(legacy, convey.ShouldEqual, acc)
			}
		})
	})
}

func TestGlobalIDBoundaries(t *testing.T) {
	convey.Convey("Given global ids at or below the magic offset", t, func() {
		for _, g := range []uint64{0, 1, identity.MagicOffset - 1, identity.MagicOffset} {
			_, err := identity.GlobalIDToAccountID(g)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, identity.ErrInvalidGlobalID), convey.ShouldBeTrue)
		}
	})

	convey.Convey("Given a global id too far above the offset", t, func() {
		_, err := identity.GlobalIDToAccountID(identity.MagicOffset + math.MaxUint32 + 1)
		convey.So(errors.Is(err, identity.ErrInvalidGlobalID), convey.ShouldBeTrue)
	})

	convey.Convey("Given the first valid global id", t, func() {
		id, err := identity.GlobalIDToAccountID(identity.MagicOffset + 1)
		convey.So(err, convey.ShouldBeNil)
		convey.So(id, convey.ShouldEqual, uint32(1))
	})
}

func TestLegacyFormat(t *testing.T) {
	convey.Convey("Formatting uses universe 1, parity and half", t, func() {
		convey.So(identity.AccountIDToLegacyID(322356345), convey.ShouldEqual, "ID_1:1:161178172")
		convey.So(identity.AccountIDToLegacyID(0), convey.ShouldEqual, "ID_1:0:0")
		convey.So(identity.AccountIDToLegacyID(2), convey.ShouldEqual, "ID_1:0:1")
	})

	convey.Convey("Legacy and global forms of the same player agree", t, func() {
		fromLegacy, ok := identity.LegacyIDToAccountID("ID_1:1:161178172")
		convey.So(ok, convey.ShouldBeTrue)
		fromGlobal, err := identity.GlobalIDToAccountID(76561198282622073)
		convey.So(err, convey.ShouldBeNil)
		convey.So(fromLegacy, convey.ShouldEqual, fromGlobal)
		convey.So(fromLegacy, convey.ShouldEqual, uint32(322356345))
	})

	convey.Convey("Parsing ignores the universe component and prefix case", t, func() {
		id, ok := identity.LegacyIDToAccountID("id_0:1:161178172")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(id, convey.ShouldEqual, uint32(322356345))
	})

	convey.Convey("Malformed legacy ids are rejected", t, func() {
		for _, bad := range []string{
			"",
			"ID_",
			"ID_1:1",
			"ID_1:1:",
			"ID_1::5",
			"ID_1:1:abc",
			"ID_x:1:5",
			"ID_1:2:5",
			"ID_1:1:5:6",
			"1:1:5",
			"STEAM_1:1:5",
			"ID_1:1:-5",
			"ID_1:1:4294967296",
			"ID_1:1:2147483648",
		} {
			_, ok := identity.LegacyIDToAccountID(bad)
			convey.So(ok, convey.ShouldBeFalse)
		}
	})

	convey.Convey("The largest half with parity 1 still fits", t, func() {
		id, ok := identity.LegacyIDToAccountID("ID_1:1:2147483647")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(id, convey.ShouldEqual, uint32(math.MaxUint32))
	})

	convey.Convey("IsLegacyID checks shape only", t, func() {
		convey.So(identity.IsLegacyID("ID_1:1:161178172"), convey.ShouldBeTrue)
		convey.So(identity.IsLegacyID("ID_1:9:x"), convey.ShouldBeTrue)
		convey.So(identity.IsLegacyID("lionharder"), convey.ShouldBeFalse)
		convey.So(identity.IsLegacyID("ID_1"), convey.ShouldBeFalse)
	})
}
