package pgx

import (
	"context"

	"github.com/readloom/readloom/pkg/common"
	"github.com/readloom/readloom/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	SendBatch(ctx context.Context, b *pgxv5.Batch) pgxv5.BatchResults
}

// GraphDBStorage implements the store.GraphStorage interface on PostgreSQL.
// Upserts go through single-row INSERT ... ON CONFLICT statements queued into
// one batch, so concurrent runs against the same conflict keys serialize per
// row inside Postgres rather than in the application.
type GraphDBStorage struct {
	conn pgxIConn
}

// NewGraphDBStorage creates a new GraphDBStorage using an existing database
// connection or pool.
func NewGraphDBStorage(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

var _ store.GraphStorage = (*GraphDBStorage)(nil)

// upsertNodeSQL merges metadata additively on conflict: incoming keys win,
// except "sources" which becomes the distinct union of both sides. The id in
// VALUES is only used for fresh rows; on conflict RETURNING yields the
// existing row's id.
const upsertNodeSQL = `
INSERT INTO graph_nodes (id, user_id, node_type, label, metadata)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, node_type, lower(label)) DO UPDATE
SET metadata = (coalesce(graph_nodes.metadata, '{}'::jsonb) || coalesce(EXCLUDED.metadata, '{}'::jsonb))
		|| CASE
			WHEN (graph_nodes.metadata ? 'sources') OR (EXCLUDED.metadata ? 'sources') THEN
				jsonb_build_object('sources', (
					SELECT coalesce(jsonb_agg(DISTINCT src), '[]'::jsonb)
					FROM jsonb_array_elements_text(
						coalesce(graph_nodes.metadata -> 'sources', '[]'::jsonb)
						|| coalesce(EXCLUDED.metadata -> 'sources', '[]'::jsonb)
					) AS src
				))
			ELSE '{}'::jsonb
		END,
	updated_at = now()
RETURNING id, user_id, node_type, label, metadata, created_at
`

// UpsertNodes writes the node payloads in one round trip and returns the
// resulting rows in payload order.
func (s *GraphDBStorage) UpsertNodes(
	ctx context.Context,
	payloads []common.NodePayload,
) ([]common.NodeRow, error) {
	if len(payloads) == 0 {
		return []common.NodeRow{}, nil
	}

	batch := &pgxv5.Batch{}
	for _, p := range payloads {
		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		batch.Queue(upsertNodeSQL, id, p.UserID, string(p.NodeType), p.Label, p.Metadata)
	}

	br := s.conn.SendBatch(ctx, batch)
	defer br.Close()

	rows := make([]common.NodeRow, 0, len(payloads))
	for range payloads {
		var row common.NodeRow
		err := br.QueryRow().Scan(
			&row.ID,
			&row.UserID,
			&row.NodeType,
			&row.Label,
			&row.Metadata,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

const upsertEdgeSQL = `
INSERT INTO graph_edges (id, user_id, source, target, edge_type, weight)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, source, target, edge_type) DO UPDATE
SET weight = EXCLUDED.weight,
	updated_at = now()
RETURNING id, user_id, source, target, edge_type, weight, created_at
`

// UpsertEdges writes the edge payloads in one round trip and returns the
// resulting rows in payload order. Re-upserting an existing edge refreshes
// its weight.
func (s *GraphDBStorage) UpsertEdges(
	ctx context.Context,
	payloads []common.EdgePayload,
) ([]common.EdgeRow, error) {
	if len(payloads) == 0 {
		return []common.EdgeRow{}, nil
	}

	batch := &pgxv5.Batch{}
	for _, p := range payloads {
		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		batch.Queue(upsertEdgeSQL, id, p.UserID, p.Source, p.Target, string(p.EdgeType), p.Weight)
	}

	br := s.conn.SendBatch(ctx, batch)
	defer br.Close()

	rows := make([]common.EdgeRow, 0, len(payloads))
	for range payloads {
		var row common.EdgeRow
		err := br.QueryRow().Scan(
			&row.ID,
			&row.UserID,
			&row.Source,
			&row.Target,
			&row.EdgeType,
			&row.Weight,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

const queryNodesSQL = `
SELECT id, user_id, node_type, label, metadata, created_at
FROM graph_nodes
WHERE user_id = $1
	AND ($2::text[] IS NULL OR node_type = ANY ($2))
	AND ($3::timestamptz IS NULL OR created_at >= $3)
	AND ($4::timestamptz IS NULL OR created_at <= $4)
ORDER BY created_at DESC
LIMIT $5
`

// QueryNodes returns the user's nodes newest-first, filtered by type and
// creation window.
func (s *GraphDBStorage) QueryNodes(
	ctx context.Context,
	q store.NodeQuery,
) ([]common.NodeRow, error) {
	var types []string
	for _, t := range q.Types {
		types = append(types, string(t))
	}

	rows, err := s.conn.Query(ctx, queryNodesSQL, q.UserID, types, q.Start, q.End, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []common.NodeRow{}
	for rows.Next() {
		var row common.NodeRow
		err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.NodeType,
			&row.Label,
			&row.Metadata,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const queryEdgesSQL = `
SELECT id, user_id, source, target, edge_type, weight, created_at
FROM graph_edges
WHERE user_id = $1
	AND source = ANY ($2)
	AND ($3::text[] IS NULL OR edge_type = ANY ($3))
	AND ($4::timestamptz IS NULL OR created_at >= $4)
	AND ($5::timestamptz IS NULL OR created_at <= $5)
ORDER BY created_at DESC
LIMIT $6
`

// QueryEdges returns the user's edges whose source is in the given set,
// newest-first. Targets are not constrained.
func (s *GraphDBStorage) QueryEdges(
	ctx context.Context,
	q store.EdgeQuery,
) ([]common.EdgeRow, error) {
	if len(q.SourceIDs) == 0 {
		return []common.EdgeRow{}, nil
	}

	var types []string
	for _, t := range q.Types {
		types = append(types, string(t))
	}

	rows, err := s.conn.Query(
		ctx,
		queryEdgesSQL,
		q.UserID,
		q.SourceIDs,
		types,
		q.Start,
		q.End,
		q.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []common.EdgeRow{}
	for rows.Next() {
		var row common.EdgeRow
		err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.Source,
			&row.Target,
			&row.EdgeType,
			&row.Weight,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
