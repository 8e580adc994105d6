// Package resolver turns user-supplied player, map and server identifiers
// into store rows and canonical keys.
package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kzstats/internal/domain"
	"github.com/kzstats/internal/identity"
)

// PlayerKind tags which shape a PlayerIdentifier holds
type PlayerKind uint8

const (
	PlayerNumeric PlayerKind = iota
	PlayerLegacy
	PlayerGlobal
	PlayerName
)

func (k PlayerKind) String() string {
	switch k {
	case PlayerNumeric:
		return "numeric"
	case PlayerLegacy:
		return "legacy"
	case PlayerGlobal:
		return "global"
	default:
		return "name"
	}
}

// PlayerIdentifier is a classified player identifier. Exactly one of the
// value fields is meaningful, selected by Kind.
type PlayerIdentifier struct {
	Kind     PlayerKind
	Account  uint32
	GlobalID uint64
	Text     string
}

// globalIDDigits and globalIDPrefix describe the textual shape of a global id.
const (
	globalIDDigits = 17
	globalIDPrefix = "7656"
)

// ParsePlayerIdentifier classifies raw. It never fails: conversion errors
// surface from AccountID.
func ParsePlayerIdentifier(raw string) PlayerIdentifier {
	raw = strings.TrimSpace(raw)

	if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return PlayerIdentifier{Kind: PlayerNumeric, Account: uint32(n)}
	}
	if identity.IsLegacyID(raw) {
		return PlayerIdentifier{Kind: PlayerLegacy, Text: raw}
	}
	if len(raw) == globalIDDigits && strings.HasPrefix(raw, globalIDPrefix) {
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return PlayerIdentifier{Kind: PlayerGlobal, GlobalID: n}
		}
	}
	return PlayerIdentifier{Kind: PlayerName, Text: raw}
}

// AccountID converts id-shaped identifiers without touching the store.
// The boolean is false for names, which need a lookup. A blank name would
// match every player and is rejected.
func (p PlayerIdentifier) AccountID() (uint32, bool, error) {
	switch p.Kind {
	case PlayerNumeric:
		return p.Account, true, nil
	case PlayerLegacy:
		id, ok := identity.LegacyIDToAccountID(p.Text)
		if !ok {
			return 0, true, fmt.Errorf("%w: %q, expected `ID_1:1:161178172`", domain.ErrInvalidIdentity, p.Text)
		}
		return id, true, nil
	case PlayerGlobal:
		id, err := identity.GlobalIDToAccountID(p.GlobalID)
		if err != nil {
			return 0, true, fmt.Errorf("%w: %v", domain.ErrInvalidIdentity, err)
		}
		return id, true, nil
	default:
		if p.Text == "" {
			return 0, false, fmt.Errorf("%w: empty player identifier", domain.ErrInvalidInput)
		}
		return 0, false, nil
	}
}

// RowIdentifier is a classified map or server identifier
type RowIdentifier struct {
	ID     uint16
	Name   string
	IsName bool
}

// ParseMapIdentifier classifies a map identifier. Map names never contain
// '&', so one showing up means a query string was glued onto the path.
func ParseMapIdentifier(raw string) (RowIdentifier, error) {
	if strings.Contains(raw, "&") {
		return RowIdentifier{}, fmt.Errorf("%w: map %q contains '&', use '?' instead of the first '&'", domain.ErrInvalidInput, raw)
	}
	return parseRowIdentifier("map", raw)
}

// ParseServerIdentifier classifies a server identifier.
func ParseServerIdentifier(raw string) (RowIdentifier, error) {
	return parseRowIdentifier("server", raw)
}

func parseRowIdentifier(kind, raw string) (RowIdentifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RowIdentifier{}, fmt.Errorf("%w: empty %s identifier", domain.ErrInvalidInput, kind)
	}
	if n, err := strconv.ParseUint(raw, 10, 16); err == nil {
		return RowIdentifier{ID: uint16(n)}, nil
	}
	return RowIdentifier{Name: raw, IsName: true}, nil
}
