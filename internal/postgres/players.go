package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kzstats/internal/domain"
	"github.com/kzstats/internal/query"
)

// PlayerByID retrieves a player by account id
func (r *Repository) PlayerByID(ctx context.Context, id uint32) (domain.Player, error) {
	const q = `SELECT id, name, is_banned FROM players WHERE id = $1`
	return run(ctx, r, "player_by_id", func(ctx context.Context) (domain.Player, error) {
		return scanPlayer(r.pool.QueryRow(ctx, q, id))
	})
}

// PlayerByName retrieves the first player, by id, whose name contains name
func (r *Repository) PlayerByName(ctx context.Context, name string) (domain.Player, error) {
	const q = `SELECT id, name, is_banned FROM players WHERE name ILIKE $1 ORDER BY id LIMIT 1`
	return run(ctx, r, "player_by_name", func(ctx context.Context) (domain.Player, error) {
		return scanPlayer(r.pool.QueryRow(ctx, q, query.ContainsPattern(name)))
	})
}

func scanPlayer(row pgx.Row) (domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.Name, &p.IsBanned)
	return p, err
}

// PlayerCompletion counts the distinct main courses a player has finished
// per mode and teleport class
func (r *Repository) PlayerCompletion(ctx context.Context, playerID uint32) (domain.Completion, error) {
	const q = `
		SELECT record.mode_id, record.teleports > 0, COUNT(DISTINCT record.course_id)
		FROM records AS record
		JOIN courses AS course ON course.id = record.course_id
		WHERE record.player_id = $1 AND course.stage = 0
		GROUP BY record.mode_id, record.teleports > 0
	`
	return run(ctx, r, "player_completion", func(ctx context.Context) (domain.Completion, error) {
		var c domain.Completion
		rows, err := r.pool.Query(ctx, q, playerID)
		if err != nil {
			return c, err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				mode         uint8
				hasTeleports bool
				count        int64
			)
			if err := rows.Scan(&mode, &hasTeleports, &count); err != nil {
				return c, err
			}
			class := domain.ClassPro
			if hasTeleports {
				class = domain.ClassTP
			}
			c.Add(domain.ModeID(mode), class, count)
		}
		return c, rows.Err()
	})
}
