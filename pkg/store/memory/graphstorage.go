package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/readloom/readloom/pkg/common"
	"github.com/readloom/readloom/pkg/graph"
	"github.com/readloom/readloom/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// GraphMemStorage is an in-memory store.GraphStorage used in tests and for
// local runs without Postgres. It applies the same conflict-key and
// metadata-merge semantics as the database store.
type GraphMemStorage struct {
	mu sync.Mutex

	nodesByKey map[string]*common.NodeRow
	edgesByKey map[string]*common.EdgeRow

	nodeOrder []string
	edgeOrder []string

	clock func() time.Time
}

// NewGraphMemStorage creates an empty in-memory graph store.
func NewGraphMemStorage() *GraphMemStorage {
	return &GraphMemStorage{
		nodesByKey: make(map[string]*common.NodeRow),
		edgesByKey: make(map[string]*common.EdgeRow),
		clock:      time.Now,
	}
}

var _ store.GraphStorage = (*GraphMemStorage)(nil)

func edgeKey(p common.EdgePayload) string {
	return strings.Join([]string{p.UserID, p.Source, p.Target, string(p.EdgeType)}, ":")
}

// UpsertNodes inserts or merges the payloads and returns the resulting rows
// in payload order.
func (s *GraphMemStorage) UpsertNodes(
	ctx context.Context,
	payloads []common.NodePayload,
) ([]common.NodeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]common.NodeRow, 0, len(payloads))
	for _, p := range payloads {
		key := graph.NodeKey(p.UserID, p.NodeType, p.Label)
		if existing, ok := s.nodesByKey[key]; ok {
			existing.Metadata = graph.MergeMetadata(existing.Metadata, p.Metadata)
			rows = append(rows, *existing)
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		row := &common.NodeRow{
			ID:        id,
			UserID:    p.UserID,
			NodeType:  p.NodeType,
			Label:     strings.TrimSpace(p.Label),
			Metadata:  graph.MergeMetadata(common.Metadata{}, p.Metadata),
			CreatedAt: s.clock(),
		}
		s.nodesByKey[key] = row
		s.nodeOrder = append(s.nodeOrder, key)
		rows = append(rows, *row)
	}

	return rows, nil
}

// UpsertEdges inserts or refreshes the payloads and returns the resulting
// rows in payload order.
func (s *GraphMemStorage) UpsertEdges(
	ctx context.Context,
	payloads []common.EdgePayload,
) ([]common.EdgeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]common.EdgeRow, 0, len(payloads))
	for _, p := range payloads {
		key := edgeKey(p)
		if existing, ok := s.edgesByKey[key]; ok {
			existing.Weight = p.Weight
			rows = append(rows, *existing)
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		row := &common.EdgeRow{
			ID:        id,
			UserID:    p.UserID,
			Source:    p.Source,
			Target:    p.Target,
			EdgeType:  p.EdgeType,
			Weight:    p.Weight,
			CreatedAt: s.clock(),
		}
		s.edgesByKey[key] = row
		s.edgeOrder = append(s.edgeOrder, key)
		rows = append(rows, *row)
	}

	return rows, nil
}

func inWindow(createdAt time.Time, start, end *time.Time) bool {
	if start != nil && createdAt.Before(*start) {
		return false
	}
	if end != nil && createdAt.After(*end) {
		return false
	}
	return true
}

// QueryNodes returns the user's nodes newest-first, filtered by type and
// creation window.
func (s *GraphMemStorage) QueryNodes(
	ctx context.Context,
	q store.NodeQuery,
) ([]common.NodeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	typeSet := make(map[common.NodeType]struct{}, len(q.Types))
	for _, t := range q.Types {
		typeSet[t] = struct{}{}
	}

	out := []common.NodeRow{}
	for _, key := range s.nodeOrder {
		row := s.nodesByKey[key]
		if row.UserID != q.UserID {
			continue
		}
		if len(typeSet) > 0 {
			if _, ok := typeSet[row.NodeType]; !ok {
				continue
			}
		}
		if !inWindow(row.CreatedAt, q.Start, q.End) {
			continue
		}
		out = append(out, *row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// QueryEdges returns the user's edges whose source is in the given set,
// newest-first.
func (s *GraphMemStorage) QueryEdges(
	ctx context.Context,
	q store.EdgeQuery,
) ([]common.EdgeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(q.SourceIDs) == 0 {
		return []common.EdgeRow{}, nil
	}

	sourceSet := make(map[string]struct{}, len(q.SourceIDs))
	for _, id := range q.SourceIDs {
		sourceSet[id] = struct{}{}
	}
	typeSet := make(map[common.EdgeType]struct{}, len(q.Types))
	for _, t := range q.Types {
		typeSet[t] = struct{}{}
	}

	out := []common.EdgeRow{}
	for _, key := range s.edgeOrder {
		row := s.edgesByKey[key]
		if row.UserID != q.UserID {
			continue
		}
		if _, ok := sourceSet[row.Source]; !ok {
			continue
		}
		if len(typeSet) > 0 {
			if _, ok := typeSet[row.EdgeType]; !ok {
				continue
			}
		}
		if !inWindow(row.CreatedAt, q.Start, q.End) {
			continue
		}
		out = append(out, *row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
