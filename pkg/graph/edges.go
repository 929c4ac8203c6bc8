package graph

import (
	"math"
	"strings"

	"github.com/readloom/readloom/pkg/common"
)

// ResolveWeight maps an analyzer-provided score to a renderable edge weight.
// Non-finite values default to 1; everything else is clamped to [0.1, 100]
// and rounded to 2 decimals. Weights drive visual edge thickness, so they
// must never be zero, negative or unbounded.
func ResolveWeight(value *float64) float64 {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return 1
	}

	clamped := math.Max(0.1, math.Min(100, *value))
	return math.Round(clamped*100) / 100
}

// BuildEdgePayloads derives the weighted edges from the book node to every
// other node the analysis produced. It is a pure function: persisted node
// rows are passed in so generated ids never have to be guessed. Edges whose
// target cannot be resolved (label dropped during canonicalization) or whose
// target is the book node itself are skipped.
func BuildEdgePayloads(
	userID string,
	bookNode common.NodeRow,
	nodeRows []common.NodeRow,
	analysis common.AnalysisResult,
	record common.RecordInput,
) []common.EdgePayload {
	byKey := make(map[string]common.NodeRow, len(nodeRows))
	for _, row := range nodeRows {
		byKey[NodeKey(row.UserID, row.NodeType, row.Label)] = row
	}

	edges := make([]common.EdgePayload, 0, len(nodeRows))

	connect := func(nodeType common.NodeType, label string, edgeType common.EdgeType, weight float64) {
		normalized := strings.TrimSpace(label)
		if normalized == "" {
			return
		}
		target, ok := byKey[NodeKey(userID, nodeType, normalized)]
		if !ok || target.ID == bookNode.ID {
			return
		}
		edges = append(edges, common.EdgePayload{
			UserID:   userID,
			Source:   bookNode.ID,
			Target:   target.ID,
			EdgeType: edgeType,
			Weight:   weight,
		})
	}

	for _, topic := range analysis.Topics {
		connect(common.NodeTypeTopic, topic.Label, common.EdgeTypeBookTopic, ResolveWeight(topic.Relevance))
	}

	for _, emotion := range analysis.Emotions {
		connect(common.NodeTypeEmotion, emotion.Label, common.EdgeTypeBookEmotion, ResolveWeight(emotion.Intensity))
	}

	for _, author := range analysis.Authors {
		connect(common.NodeTypeAuthor, author, common.EdgeTypeBookAuthor, 1)
	}

	for _, genre := range analysis.Genres {
		connect(common.NodeTypeGenre, genre, common.EdgeTypeBookGenre, 1)
	}

	seen := make(map[string]struct{})
	connectKeyword := func(keyword string) {
		normalized := strings.TrimSpace(keyword)
		if normalized == "" {
			return
		}
		lower := strings.ToLower(normalized)
		if _, ok := seen[lower]; ok {
			return
		}
		seen[lower] = struct{}{}
		connect(common.NodeTypeKeyword, normalized, common.EdgeTypeBookKeyword, 1)
	}
	for _, keyword := range record.UserKeywords {
		connectKeyword(keyword)
	}
	for _, keyword := range analysis.Keywords {
		connectKeyword(keyword)
	}

	return edges
}
