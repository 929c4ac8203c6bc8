package store

import (
	"context"
	"time"

	"github.com/readloom/readloom/pkg/common"
)

// NodeQuery filters a node read. Zero-value fields are ignored; Limit must be
// set by the caller (the view layer clamps it).
type NodeQuery struct {
	UserID string
	Types  []common.NodeType
	Start  *time.Time
	End    *time.Time
	Limit  int
}

// EdgeQuery filters an edge read by source-node membership. Targets are not
// constrained, so a returned edge may point at a node outside the queried
// set; consumers must tolerate dangling targets.
type EdgeQuery struct {
	UserID    string
	SourceIDs []string
	Types     []common.EdgeType
	Start     *time.Time
	End       *time.Time
	Limit     int
}

// GraphStorage persists and queries the per-user property graph.
//
// Both upserts are idempotent and atomic per conflict key: nodes conflict on
// (user_id, node_type, lowercased label) with metadata merged additively,
// edges conflict on (user_id, source, target, edge_type) with the weight
// refreshed. Ids are generated by the store on first insert and returned for
// new and existing rows alike. Reads return newest-first.
type GraphStorage interface {
	UpsertNodes(ctx context.Context, payloads []common.NodePayload) ([]common.NodeRow, error)
	UpsertEdges(ctx context.Context, payloads []common.EdgePayload) ([]common.EdgeRow, error)

	QueryNodes(ctx context.Context, q NodeQuery) ([]common.NodeRow, error)
	QueryEdges(ctx context.Context, q EdgeQuery) ([]common.EdgeRow, error)
}
