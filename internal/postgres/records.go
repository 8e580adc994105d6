package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kzstats/internal/domain"
	"github.com/kzstats/internal/query"
)

// SelectRecords runs sql, which must select query.RecordColumns, and scans
// every row
func (r *Repository) SelectRecords(ctx context.Context, sql string, args ...any) ([]domain.Record, error) {
	return run(ctx, r, "select_records", func(ctx context.Context) ([]domain.Record, error) {
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var records []domain.Record
		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		return records, rows.Err()
	})
}

// RecordByID retrieves a single record with its joined names
func (r *Repository) RecordByID(ctx context.Context, id uint32) (domain.Record, error) {
	q := query.RecordByIDSQL()
	return run(ctx, r, "record_by_id", func(ctx context.Context) (domain.Record, error) {
		return scanRecord(r.pool.QueryRow(ctx, q, id))
	})
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var (
		rec  domain.Record
		mode uint8
	)
	err := row.Scan(
		&rec.ID, &rec.CourseID, &rec.MapID, &rec.MapName, &rec.Stage,
		&mode, &rec.ModeName, &rec.PlayerID, &rec.PlayerName,
		&rec.ServerID, &rec.ServerName, &rec.Time, &rec.Teleports, &rec.CreatedOn,
	)
	rec.ModeID = domain.ModeID(mode)
	return rec, err
}
