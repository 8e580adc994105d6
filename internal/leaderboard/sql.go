package leaderboard

import (
	"strconv"

	"github.com/kzstats/internal/query"
)

// PersonalBestsSQL wraps the filtered projection in a DISTINCT ON per
// (course, mode, player, class) group. The inner ORDER BY picks the
// fastest row with the lowest id first.
func PersonalBestsSQL(frag query.Fragment, limit int) (string, []any) {
	sql := `SELECT * FROM (
	SELECT DISTINCT ON (record.course_id, record.mode_id, record.player_id, record.teleports > 0) ` +
		query.RecordColumns + query.RecordJoins + frag.Clause + `
	ORDER BY record.course_id, record.mode_id, record.player_id, record.teleports > 0, record.time, record.id
) AS pb
ORDER BY pb.time, pb.stage, pb.id`

	args := append([]any(nil), frag.Args...)
	if limit > 0 {
		sql += " LIMIT $" + strconv.Itoa(frag.Next())
		args = append(args, limit)
	}
	return sql, args
}
