package view

import (
	"context"
	"time"

	"github.com/readloom/readloom/pkg/common"
	"github.com/readloom/readloom/pkg/store"
)

const (
	DefaultNodeLimit = 200
	DefaultEdgeLimit = 400
	MaxNodeLimit     = 1000
	MaxEdgeLimit     = 2000
)

// Filters narrows a graph fetch. Zero values mean "no filter"; limits of
// zero fall back to the defaults. When only NodeLimit is set it also seeds
// the edge limit, so a caller asking for a bigger picture gets proportionally
// more edges.
type Filters struct {
	NodeTypes []common.NodeType
	EdgeTypes []common.EdgeType
	StartDate *time.Time
	EndDate   *time.Time
	NodeLimit int
	EdgeLimit int
}

// Node is one node of the rendered graph. Internal bookkeeping metadata is
// stripped before it leaves the service.
type Node struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	NodeType  common.NodeType `json:"nodeType"`
	Metadata  common.Metadata `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Edge is one edge of the rendered graph. Its target may reference a node
// outside the returned node set when limits cut the picture off.
type Edge struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Target    string          `json:"target"`
	EdgeType  common.EdgeType `json:"edgeType"`
	Weight    float64         `json:"weight"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Result is the rendered graph. Both slices are always non-nil.
type Result struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Service reads a user's graph from storage and shapes it for rendering.
type Service struct {
	storage store.GraphStorage
}

// NewService creates a graph view service on top of the given storage.
func NewService(storage store.GraphStorage) *Service {
	return &Service{storage: storage}
}

func clampLimit(value, fallback, max int) int {
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

// sanitizeMetadata strips keys that are internal bookkeeping, returning nil
// when nothing user-facing remains.
func sanitizeMetadata(metadata common.Metadata) common.Metadata {
	if metadata == nil {
		return nil
	}

	clone := make(common.Metadata, len(metadata))
	for k, v := range metadata {
		if k == "recordId" {
			continue
		}
		clone[k] = v
	}
	if len(clone) == 0 {
		return nil
	}
	return clone
}

// FetchGraph returns the newest slice of the user's graph matching the
// filters. Nodes are fetched first; edges are then restricted to those whose
// source is among the returned nodes, so an empty node set short-circuits
// without touching the edge table.
func (s *Service) FetchGraph(
	ctx context.Context,
	userID string,
	filters Filters,
) (Result, error) {
	nodeLimit := clampLimit(filters.NodeLimit, DefaultNodeLimit, MaxNodeLimit)

	edgeSeed := filters.EdgeLimit
	if edgeSeed <= 0 {
		edgeSeed = filters.NodeLimit
	}
	edgeLimit := clampLimit(edgeSeed, DefaultEdgeLimit, MaxEdgeLimit)

	nodeRows, err := s.storage.QueryNodes(ctx, store.NodeQuery{
		UserID: userID,
		Types:  filters.NodeTypes,
		Start:  filters.StartDate,
		End:    filters.EndDate,
		Limit:  nodeLimit,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Nodes: make([]Node, 0, len(nodeRows)),
		Edges: []Edge{},
	}
	if len(nodeRows) == 0 {
		return result, nil
	}

	nodeIDs := make([]string, 0, len(nodeRows))
	for _, row := range nodeRows {
		nodeIDs = append(nodeIDs, row.ID)
		result.Nodes = append(result.Nodes, Node{
			ID:        row.ID,
			Label:     row.Label,
			NodeType:  row.NodeType,
			Metadata:  sanitizeMetadata(row.Metadata),
			CreatedAt: row.CreatedAt,
		})
	}

	edgeRows, err := s.storage.QueryEdges(ctx, store.EdgeQuery{
		UserID:    userID,
		SourceIDs: nodeIDs,
		Types:     filters.EdgeTypes,
		Start:     filters.StartDate,
		End:       filters.EndDate,
		Limit:     edgeLimit,
	})
	if err != nil {
		return Result{}, err
	}

	for _, row := range edgeRows {
		result.Edges = append(result.Edges, Edge{
			ID:        row.ID,
			Source:    row.Source,
			Target:    row.Target,
			EdgeType:  row.EdgeType,
			Weight:    row.Weight,
			CreatedAt: row.CreatedAt,
		})
	}

	return result, nil
}
