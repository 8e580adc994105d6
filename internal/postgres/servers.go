package postgres

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/kzstats/internal/domain"
	"github.com/kzstats/internal/query"
)

const serverColumns = `
	SELECT server.id, server.name,
		server.owned_by, owner.name, server.approved_by, approver.name
	FROM servers AS server
	JOIN players AS owner ON owner.id = server.owned_by
	JOIN players AS approver ON approver.id = server.approved_by
`

// ServerByID retrieves a server by id
func (r *Repository) ServerByID(ctx context.Context, id uint16) (domain.Server, error) {
	const q = serverColumns + `WHERE server.id = $1`
	return run(ctx, r, "server_by_id", func(ctx context.Context) (domain.Server, error) {
		return scanServer(r.pool.QueryRow(ctx, q, id))
	})
}

// ServerByName retrieves the first server, by id, whose name contains name
func (r *Repository) ServerByName(ctx context.Context, name string) (domain.Server, error) {
	const q = serverColumns + `WHERE server.name ILIKE $1 ORDER BY server.id LIMIT 1`
	return run(ctx, r, "server_by_name", func(ctx context.Context) (domain.Server, error) {
		return scanServer(r.pool.QueryRow(ctx, q, query.ContainsPattern(name)))
	})
}

// ListServers lists servers matching frag by id, at most limit of them
func (r *Repository) ListServers(ctx context.Context, frag query.Fragment, limit int) ([]domain.Server, error) {
	q := serverColumns + frag.Clause + ` ORDER BY server.id LIMIT $` + strconv.Itoa(frag.Next())
	args := append(append([]any(nil), frag.Args...), limit)
	return run(ctx, r, "list_servers", func(ctx context.Context) ([]domain.Server, error) {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var servers []domain.Server
		for rows.Next() {
			s, err := scanServer(rows)
			if err != nil {
				return nil, err
			}
			servers = append(servers, s)
		}
		return servers, rows.Err()
	})
}

func scanServer(row pgx.Row) (domain.Server, error) {
	var (
		s                       domain.Server
		ownerID, approverID     uint32
		ownerName, approverName string
	)
	if err := row.Scan(&s.ID, &s.Name, &ownerID, &ownerName, &approverID, &approverName); err != nil {
		return s, err
	}
	s.OwnedBy = domain.NewPlayerIdentity(ownerID, ownerName)
	s.ApprovedBy = domain.NewPlayerIdentity(approverID, approverName)
	return s, nil
}
