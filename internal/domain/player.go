package domain

import "github.com/kzstats/internal/identity"

// Player represents a player row keyed by account id
type Player struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	IsBanned bool   `json:"is_banned"`
}

// PlayerIdentity is a player's id in every representation, as rendered to clients
type PlayerIdentity struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	LegacyID string `json:"legacy_id"`
	GlobalID string `json:"global_id"`
}

// Identity renders the player in all three id forms.
func (p Player) Identity() PlayerIdentity {
	return NewPlayerIdentity(p.ID, p.Name)
}

// NewPlayerIdentity builds a PlayerIdentity from an account id and name.
// The global id is a string so JavaScript clients keep full precision.
func NewPlayerIdentity(id uint32, name string) PlayerIdentity {
	return PlayerIdentity{
		ID:       id,
		Name:     name,
		LegacyID: identity.AccountIDToLegacyID(id),
		GlobalID: formatUint(identity.AccountIDToGlobalID(id)),
	}
}

// ClassCount holds completion counts split by teleport class
type ClassCount struct {
	TP  int64 `json:"tp"`
	Pro int64 `json:"pro"`
}

// Completion counts the distinct main courses a player has finished, per mode
type Completion struct {
	KZT ClassCount `json:"kz_timer"`
	SKZ ClassCount `json:"kz_simple"`
	VNL ClassCount `json:"kz_vanilla"`
}

// Add records count completions for the given mode and class.
func (c *Completion) Add(mode ModeID, class TeleportClass, count int64) {
	var target *ClassCount
	switch mode {
	case ModeKZTimer:
		target = &c.KZT
	case ModeSimpleKZ:
		target = &c.SKZ
	case ModeVanilla:
		target = &c.VNL
	default:
		return
	}
	if class == ClassPro {
		target.Pro += count
	} else {
		target.TP += count
	}
}

// PlayerProfile is a player together with their completion counts
type PlayerProfile struct {
	PlayerIdentity
	IsBanned    bool       `json:"is_banned"`
	Completions Completion `json:"completion"`
}
