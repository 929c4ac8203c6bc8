package graph

import (
	"math"
	"testing"

	"github.com/readloom/readloom/pkg/common"
)

func TestResolveWeight(t *testing.T) {
	nan := math.NaN()
	posInf := math.Inf(1)
	negInf := math.Inf(-1)

	tests := []struct {
		name  string
		value *float64
		want  float64
	}{
		{name: "nil defaults to 1", value: nil, want: 1},
		{name: "nan defaults to 1", value: &nan, want: 1},
		{name: "positive infinity defaults to 1", value: &posInf, want: 1},
		{name: "negative infinity defaults to 1", value: &negInf, want: 1},
		{name: "zero clamps to floor", value: floatPtr(0), want: 0.1},
		{name: "negative clamps to floor", value: floatPtr(-3), want: 0.1},
		{name: "below floor clamps up", value: floatPtr(0.05), want: 0.1},
		{name: "above ceiling clamps down", value: floatPtr(150), want: 100},
		{name: "in range passes through", value: floatPtr(0.85), want: 0.85},
		{name: "rounds to two decimals", value: floatPtr(0.856), want: 0.86},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveWeight(tc.value); got != tc.want {
				t.Fatalf("ResolveWeight() = %v, want %v", got, tc.want)
			}
		})
	}
}

func edgeFixtureRows(userID string) (common.NodeRow, []common.NodeRow) {
	book := common.NodeRow{ID: "n-book", UserID: userID, NodeType: common.NodeTypeBook, Label: "데미안"}
	rows := []common.NodeRow{
		book,
		{ID: "n-topic", UserID: userID, NodeType: common.NodeTypeTopic, Label: "성장"},
		{ID: "n-emotion", UserID: userID, NodeType: common.NodeTypeEmotion, Label: "희망"},
		{ID: "n-author", UserID: userID, NodeType: common.NodeTypeAuthor, Label: "헤르만 헤세"},
		{ID: "n-keyword", UserID: userID, NodeType: common.NodeTypeKeyword, Label: "growth"},
	}
	return book, rows
}

func TestBuildEdgePayloads_ConnectsBookToEntities(t *testing.T) {
	book, rows := edgeFixtureRows("user-1")
	analysis := common.AnalysisResult{
		Topics:   []common.TopicInsight{{Label: "성장", Relevance: floatPtr(0.85)}},
		Emotions: []common.EmotionInsight{{Label: "희망", Intensity: nil}},
		Authors:  []string{"헤르만 헤세"},
		Keywords: []string{"growth"},
	}
	record := common.RecordInput{UserID: "user-1", BookTitle: "데미안"}

	edges := BuildEdgePayloads("user-1", book, rows, analysis, record)

	if len(edges) != 4 {
		t.Fatalf("expected 4 edges, got %d: %+v", len(edges), edges)
	}
	for _, edge := range edges {
		if edge.Source != book.ID {
			t.Fatalf("every edge must source from the book node, got %+v", edge)
		}
	}
	if edges[0].EdgeType != common.EdgeTypeBookTopic || edges[0].Weight != 0.85 {
		t.Fatalf("topic edge should carry resolved relevance, got %+v", edges[0])
	}
	if edges[1].EdgeType != common.EdgeTypeBookEmotion || edges[1].Weight != 1 {
		t.Fatalf("emotion edge without intensity should weigh 1, got %+v", edges[1])
	}
}

func TestBuildEdgePayloads_SkipsUnresolvedAndSelfLoops(t *testing.T) {
	book, rows := edgeFixtureRows("user-1")
	// A row whose id collides with the book simulates a canonicalization
	// that folded the target into the book itself.
	rows = append(rows, common.NodeRow{
		ID: book.ID, UserID: "user-1", NodeType: common.NodeTypeGenre, Label: "소설",
	})

	analysis := common.AnalysisResult{
		Topics: []common.TopicInsight{
			{Label: "성장", Relevance: floatPtr(0.5)},
			{Label: "미지의 주제"},
			{Label: "  "},
		},
		Genres: []string{"소설"},
	}
	record := common.RecordInput{UserID: "user-1", BookTitle: "데미안"}

	edges := BuildEdgePayloads("user-1", book, rows, analysis, record)

	if len(edges) != 1 {
		t.Fatalf("expected only the resolvable topic edge, got %+v", edges)
	}
	if edges[0].Target != "n-topic" {
		t.Fatalf("unexpected edge target %q", edges[0].Target)
	}
}

func TestBuildEdgePayloads_KeywordUnionIsCaseInsensitive(t *testing.T) {
	book, rows := edgeFixtureRows("user-1")
	analysis := common.AnalysisResult{
		Keywords: []string{"GROWTH", "self"},
	}
	record := common.RecordInput{
		UserID:       "user-1",
		BookTitle:    "데미안",
		UserKeywords: []string{"growth"},
	}

	edges := BuildEdgePayloads("user-1", book, rows, analysis, record)

	// "self" has no node row, so only one growth edge survives.
	if len(edges) != 1 {
		t.Fatalf("expected a single deduplicated keyword edge, got %+v", edges)
	}
	if edges[0].EdgeType != common.EdgeTypeBookKeyword || edges[0].Target != "n-keyword" {
		t.Fatalf("unexpected keyword edge %+v", edges[0])
	}
}
