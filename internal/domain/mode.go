package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ModeID identifies a movement mode
type ModeID uint8

const (
	ModeKZTimer  ModeID = 200
	ModeSimpleKZ ModeID = 201
	ModeVanilla  ModeID = 202
)

// Mode represents a movement mode row
type Mode struct {
	ID        ModeID    `json:"id"`
	Name      string    `json:"name"`
	NameShort string    `json:"name_short"`
	NameLong  string    `json:"name_long"`
	CreatedOn time.Time `json:"created_on"`
}

type modeNames struct {
	name, short, long string
}

var knownModes = map[ModeID]modeNames{
	ModeKZTimer:  {"kz_timer", "KZT", "KZTimer"},
	ModeSimpleKZ: {"kz_simple", "SKZ", "SimpleKZ"},
	ModeVanilla:  {"kz_vanilla", "VNL", "Vanilla"},
}

// String returns the mode's full name.
func (m ModeID) String() string {
	if n, ok := knownModes[m]; ok {
		return n.name
	}
	return strconv.Itoa(int(m))
}

// Short returns the mode's abbreviation.
func (m ModeID) Short() string {
	if n, ok := knownModes[m]; ok {
		return n.short
	}
	return m.String()
}

// ParseMode accepts a mode id or any of its names, ignoring case.
func ParseMode(raw string) (ModeID, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseUint(raw, 10, 8); err == nil {
		if _, ok := knownModes[ModeID(n)]; ok {
			return ModeID(n), nil
		}
		return 0, fmt.Errorf("%w: unknown mode id %d", ErrInvalidInput, n)
	}
	for id, n := range knownModes {
		if strings.EqualFold(raw, n.name) || strings.EqualFold(raw, n.short) || strings.EqualFold(raw, n.long) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q, expected one of kz_timer, kz_simple, kz_vanilla", ErrInvalidInput, raw)
}

// TeleportClass separates runs without teleports from runs with them
type TeleportClass uint8

const (
	ClassPro TeleportClass = iota
	ClassTP
)

// ClassOf returns the class of a run with the given teleport count.
func ClassOf(teleports uint32) TeleportClass {
	if teleports > 0 {
		return ClassTP
	}
	return ClassPro
}

// HasTeleports reports whether the class is TP.
func (c TeleportClass) HasTeleports() bool {
	return c == ClassTP
}

func (c TeleportClass) String() string {
	if c == ClassTP {
		return "tp"
	}
	return "pro"
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
