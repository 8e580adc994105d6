package postgres

import (
	"context"

	"github.com/kzstats/internal/domain"
)

// Modes lists every mode ordered by id
func (r *Repository) Modes(ctx context.Context) ([]domain.Mode, error) {
	const q = `SELECT id, name, name_short, name_long, created_on FROM modes ORDER BY id`
	return run(ctx, r, "modes", func(ctx context.Context) ([]domain.Mode, error) {
		rows, err := r.pool.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var modes []domain.Mode
		for rows.Next() {
			var (
				m  domain.Mode
				id uint8
			)
			if err := rows.Scan(&id, &m.Name, &m.NameShort, &m.NameLong, &m.CreatedOn); err != nil {
				return nil, err
			}
			m.ID = domain.ModeID(id)
			modes = append(modes, m)
		}
		return modes, rows.Err()
	})
}

// ModeByID retrieves a single mode
func (r *Repository) ModeByID(ctx context.Context, id domain.ModeID) (domain.Mode, error) {
	const q = `SELECT name, name_short, name_long, created_on FROM modes WHERE id = $1`
	return run(ctx, r, "mode_by_id", func(ctx context.Context) (domain.Mode, error) {
		m := domain.Mode{ID: id}
		err := r.pool.QueryRow(ctx, q, uint8(id)).Scan(&m.Name, &m.NameShort, &m.NameLong, &m.CreatedOn)
		return m, err
	})
}
