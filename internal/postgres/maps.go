package postgres

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/kzstats/internal/domain"
	"github.com/kzstats/internal/query"
)

const mapColumns = `
	SELECT map.id, map.name, map.courses, map.validated, map.filesize,
		map.created_by, creator.name, map.approved_by, approver.name,
		map.created_on, map.updated_on
	FROM maps AS map
	JOIN players AS creator ON creator.id = map.created_by
	JOIN players AS approver ON approver.id = map.approved_by
`

// MapByID retrieves a map by id
func (r *Repository) MapByID(ctx context.Context, id uint16) (domain.Map, error) {
	const q = mapColumns + `WHERE map.id = $1`
	return run(ctx, r, "map_by_id", func(ctx context.Context) (domain.Map, error) {
		return scanMap(r.pool.QueryRow(ctx, q, id))
	})
}

// MapByName retrieves the first map, by id, whose name contains name
func (r *Repository) MapByName(ctx context.Context, name string) (domain.Map, error) {
	const q = mapColumns + `WHERE map.name ILIKE $1 ORDER BY map.id LIMIT 1`
	return run(ctx, r, "map_by_name", func(ctx context.Context) (domain.Map, error) {
		return scanMap(r.pool.QueryRow(ctx, q, query.ContainsPattern(name)))
	})
}

// ListMaps lists maps matching frag by id, at most limit of them
func (r *Repository) ListMaps(ctx context.Context, frag query.Fragment, limit int) ([]domain.Map, error) {
	q := mapColumns + frag.Clause + ` ORDER BY map.id LIMIT $` + strconv.Itoa(frag.Next())
	args := append(append([]any(nil), frag.Args...), limit)
	return run(ctx, r, "list_maps", func(ctx context.Context) ([]domain.Map, error) {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var maps []domain.Map
		for rows.Next() {
			m, err := scanMap(rows)
			if err != nil {
				return nil, err
			}
			maps = append(maps, m)
		}
		return maps, rows.Err()
	})
}

func scanMap(row pgx.Row) (domain.Map, error) {
	var (
		m                         domain.Map
		creatorID, approverID     uint32
		creatorName, approverName string
	)
	err := row.Scan(
		&m.ID, &m.Name, &m.Courses, &m.Validated, &m.Filesize,
		&creatorID, &creatorName, &approverID, &approverName,
		&m.CreatedOn, &m.UpdatedOn,
	)
	if err != nil {
		return m, err
	}
	m.CreatedBy = domain.NewPlayerIdentity(creatorID, creatorName)
	m.ApprovedBy = domain.NewPlayerIdentity(approverID, approverName)
	return m, nil
}

// CoursesByMap lists a map's courses ordered by stage
func (r *Repository) CoursesByMap(ctx context.Context, mapID uint16) ([]domain.Course, error) {
	const q = `
		SELECT id, map_id, stage, kzt, kzt_difficulty, skz, skz_difficulty, vnl, vnl_difficulty
		FROM courses
		WHERE map_id = $1
		ORDER BY stage
	`
	return run(ctx, r, "courses_by_map", func(ctx context.Context) ([]domain.Course, error) {
		rows, err := r.pool.Query(ctx, q, mapID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var courses []domain.Course
		for rows.Next() {
			var c domain.Course
			if err := rows.Scan(
				&c.ID, &c.MapID, &c.Stage,
				&c.KZT.Enabled, &c.KZT.Difficulty,
				&c.SKZ.Enabled, &c.SKZ.Difficulty,
				&c.VNL.Enabled, &c.VNL.Difficulty,
			); err != nil {
				return nil, err
			}
			courses = append(courses, c)
		}
		return courses, rows.Err()
	})
}
