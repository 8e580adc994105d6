package domain

import "time"

// Record is a single completed run with the names of everything it refers to
type Record struct {
	ID         uint32    `json:"id"`
	CourseID   uint32    `json:"course_id"`
	MapID      uint16    `json:"map_id"`
	MapName    string    `json:"map_name"`
	Stage      uint8     `json:"stage"`
	ModeID     ModeID    `json:"mode_id"`
	ModeName   string    `json:"mode"`
	PlayerID   uint32    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	ServerID   uint16    `json:"server_id"`
	ServerName string    `json:"server_name"`
	Time       float64   `json:"time"`
	Teleports  uint32    `json:"teleports"`
	CreatedOn  time.Time `json:"created_on"`
}

// Class returns the record's teleport class.
func (r Record) Class() TeleportClass {
	return ClassOf(r.Teleports)
}

// LeaderboardEntry is a personal best with its 1-based position
type LeaderboardEntry struct {
	Rank uint32 `json:"rank"`
	Record
}

// board identifies one leaderboard: a course in a mode for one teleport
// class.
type board struct {
	course uint32
	mode   ModeID
	class  TeleportClass
}

// Ranked numbers records in the order given, starting at 1 on every
// leaderboard. Records of different courses, modes or teleport classes
// are counted separately, so each rank matches the record's place.
func Ranked(records []Record) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(records))
	next := make(map[board]uint32)
	for i, r := range records {
		b := board{course: r.CourseID, mode: r.ModeID, class: r.Class()}
		next[b]++
		entries[i] = LeaderboardEntry{Rank: next[b], Record: r}
	}
	return entries
}
