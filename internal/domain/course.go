package domain

import "time"

// Map represents a map row with creator and approver names joined in
type Map struct {
	ID         uint16         `json:"id"`
	Name       string         `json:"name"`
	Courses    uint8          `json:"course_count"`
	Validated  bool           `json:"validated"`
	Filesize   uint64         `json:"filesize"`
	CreatedBy  PlayerIdentity `json:"created_by"`
	ApprovedBy PlayerIdentity `json:"approved_by"`
	CreatedOn  time.Time      `json:"created_on"`
	UpdatedOn  time.Time      `json:"updated_on"`
}

// Style is one mode's availability and difficulty on a course
type Style struct {
	Enabled    bool  `json:"enabled"`
	Difficulty uint8 `json:"difficulty"`
}

// Course is a stage of a map; stage 0 is the main course
type Course struct {
	ID    uint32 `json:"id"`
	MapID uint16 `json:"map_id"`
	Stage uint8  `json:"stage"`
	KZT   Style  `json:"kzt"`
	SKZ   Style  `json:"skz"`
	VNL   Style  `json:"vnl"`
}

// MapDetails is a map together with its courses
type MapDetails struct {
	Map
	CourseList []Course `json:"courses"`
}

// Server represents a game server with owner and approver joined in
type Server struct {
	ID         uint16         `json:"id"`
	Name       string         `json:"name"`
	OwnedBy    PlayerIdentity `json:"owned_by"`
	ApprovedBy PlayerIdentity `json:"approved_by"`
}
