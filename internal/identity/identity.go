// Package identity converts between the three interchangeable forms of a
// player's identity: the 32-bit account id used as the storage key, the
// 64-bit global id, and the legacy "ID_U:P:H" text form.
package identity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MagicOffset is the distance between an account id and its global id.
const MagicOffset uint64 = 76561197960265728

// legacyUniverse is the universe component written by AccountIDToLegacyID.
const legacyUniverse = 1

const legacyPrefix = "ID_"

// ErrInvalidGlobalID is returned when a global id does not map to an account id.
var ErrInvalidGlobalID = errors.New("global id out of range")

// AccountIDToGlobalID returns the global id for an account id.
func AccountIDToGlobalID(accountID uint32) uint64 {
	return uint64(accountID) + MagicOffset
}

// GlobalIDToAccountID returns the account id for a global id. The global id
// must be strictly greater than MagicOffset and within 32 bits of it.
func GlobalIDToAccountID(globalID uint64) (uint32, error) {
	if globalID <= MagicOffset {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGlobalID, globalID)
	}
	diff := globalID - MagicOffset
	if diff > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGlobalID, globalID)
	}
	return uint32(diff), nil
}

// LegacyIDToAccountID parses "ID_<universe>:<parity>:<half>" and returns
// half*2 + parity. The boolean is false for malformed input.
func LegacyIDToAccountID(text string) (uint32, bool) {
	if len(text) < len(legacyPrefix) || !strings.EqualFold(text[:len(legacyPrefix)], legacyPrefix) {
		return 0, false
	}

	parts := strings.Split(text[len(legacyPrefix):], ":")
	if len(parts) != 3 {
		return 0, false
	}

	if _, err := strconv.ParseUint(parts[0], 10, 8); err != nil {
		return 0, false
	}
	parity, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || parity > 1 {
		return 0, false
	}
	half, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, false
	}

	accountID := half*2 + parity
	if accountID > math.MaxUint32 {
		return 0, false
	}
	return uint32(accountID), true
}

// AccountIDToLegacyID formats an account id in the legacy text form.
func AccountIDToLegacyID(accountID uint32) string {
	return fmt.Sprintf("%s%d:%d:%d", legacyPrefix, legacyUniverse, accountID&1, accountID>>1)
}

// IsLegacyID reports whether text has the shape of a legacy id, regardless
// of whether its parts are in range.
func IsLegacyID(text string) bool {
	if len(text) < len(legacyPrefix) || !strings.EqualFold(text[:len(legacyPrefix)], legacyPrefix) {
		return false
	}
	return strings.Count(text, ":") == 2
}
