package query

import "strconv"

// RecordColumns is the projection every record listing selects, in the
// order the store scans it.
const RecordColumns = `record.id AS id,
	record.course_id AS course_id,
	course.map_id AS map_id,
	map.name AS map_name,
	course.stage AS stage,
	record.mode_id AS mode_id,
	mode.name AS mode_name,
	record.player_id AS player_id,
	player.name AS player_name,
	record.server_id AS server_id,
	server.name AS server_name,
	record.time AS time,
	record.teleports AS teleports,
	record.created_on AS created_on`

// RecordJoins joins a record to the rows its names come from. Predicates
// produced by Composer reference these aliases.
const RecordJoins = `
	FROM records AS record
	JOIN courses AS course ON course.id = record.course_id
	JOIN maps AS map ON map.id = course.map_id
	JOIN modes AS mode ON mode.id = record.mode_id
	JOIN players AS player ON player.id = record.player_id
	JOIN servers AS server ON server.id = record.server_id`

// ListRecordsSQL returns the newest records matching frag, at most limit
// of them. The limit is bound after frag's arguments.
func ListRecordsSQL(frag Fragment, limit int) (string, []any) {
	sql := "SELECT " + RecordColumns + RecordJoins + frag.Clause +
		" ORDER BY record.created_on DESC, record.id DESC LIMIT $" + strconv.Itoa(frag.Next())
	args := append(append([]any(nil), frag.Args...), limit)
	return sql, args
}

// RecordByIDSQL selects a single record by id.
func RecordByIDSQL() string {
	return "SELECT " + RecordColumns + RecordJoins + " WHERE record.id = $1"
}
