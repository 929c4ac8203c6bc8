package graph

import (
	"reflect"
	"testing"

	"github.com/readloom/readloom/pkg/common"
)

func TestNodeKey_CaseAndWhitespaceInsensitive(t *testing.T) {
	a := NodeKey("user-1", common.NodeTypeTopic, "Growth")
	b := NodeKey("user-1", common.NodeTypeTopic, "  growth ")
	if a != b {
		t.Fatalf("NodeKey() should normalize case and whitespace: %q != %q", a, b)
	}

	c := NodeKey("user-2", common.NodeTypeTopic, "Growth")
	if a == c {
		t.Fatalf("NodeKey() must separate users, got %q for both", a)
	}

	d := NodeKey("user-1", common.NodeTypeKeyword, "Growth")
	if a == d {
		t.Fatalf("NodeKey() must separate node types, got %q for both", a)
	}
}

func TestMergeMetadata_IncomingWinsSourcesUnion(t *testing.T) {
	existing := common.Metadata{
		"relevance":               0.4,
		"aiSummary":               "old",
		common.MetadataKeySources: []string{"record", "ai"},
	}
	incoming := common.Metadata{
		"relevance":               0.9,
		common.MetadataKeySources: []string{"ai", "user"},
	}

	merged := MergeMetadata(existing, incoming)

	if merged["relevance"] != 0.9 {
		t.Fatalf("MergeMetadata() incoming scalar should win, got %v", merged["relevance"])
	}
	if merged["aiSummary"] != "old" {
		t.Fatalf("MergeMetadata() should keep keys absent from incoming, got %v", merged["aiSummary"])
	}

	want := []string{"record", "ai", "user"}
	if !reflect.DeepEqual(merged[common.MetadataKeySources], want) {
		t.Fatalf("MergeMetadata() sources = %v, want union %v", merged[common.MetadataKeySources], want)
	}
}

func TestMergeMetadata_NilSides(t *testing.T) {
	incoming := common.Metadata{"k": "v"}
	if got := MergeMetadata(nil, incoming); !reflect.DeepEqual(got, incoming) {
		t.Fatalf("MergeMetadata(nil, m) = %v, want %v", got, incoming)
	}
	if got := MergeMetadata(incoming, nil); !reflect.DeepEqual(got, incoming) {
		t.Fatalf("MergeMetadata(m, nil) = %v, want %v", got, incoming)
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestBuildNodePayloads_CanonicalizesAndDedupes(t *testing.T) {
	record := common.RecordInput{
		RecordID:     "rec-1",
		UserID:       "user-1",
		BookTitle:    "  데미안 ",
		Content:      "journal entry",
		UserKeywords: []string{"Growth", ""},
	}
	analysis := common.AnalysisResult{
		AISummary: "A coming of age story.",
		Topics:    []common.TopicInsight{{Label: "성장", Relevance: floatPtr(0.85)}, {Label: "   "}},
		Emotions:  []common.EmotionInsight{{Label: "희망", Intensity: floatPtr(0.7)}},
		Authors:   []string{"헤르만 헤세"},
		Genres:    []string{"소설"},
		Keywords:  []string{"growth", "self"},
	}

	payloads := BuildNodePayloads(record, analysis)

	if payloads[0].NodeType != common.NodeTypeBook || payloads[0].Label != "데미안" {
		t.Fatalf("first payload should be the trimmed book node, got %+v", payloads[0])
	}
	if payloads[0].Metadata["recordId"] != "rec-1" {
		t.Fatalf("book metadata missing recordId: %v", payloads[0].Metadata)
	}
	if payloads[0].Metadata["aiSummary"] != "A coming of age story." {
		t.Fatalf("book metadata missing aiSummary: %v", payloads[0].Metadata)
	}

	// book + topic + emotion + author + genre + 2 keywords (growth deduped)
	if len(payloads) != 7 {
		t.Fatalf("expected 7 payloads, got %d: %+v", len(payloads), payloads)
	}

	var growth *common.NodePayload
	for i := range payloads {
		if payloads[i].NodeType == common.NodeTypeKeyword && payloads[i].Label == "Growth" {
			growth = &payloads[i]
		}
	}
	if growth == nil {
		t.Fatalf("expected a keyword payload for Growth, got %+v", payloads)
	}
	want := []string{"user", "ai"}
	if !reflect.DeepEqual(growth.Metadata[common.MetadataKeySources], want) {
		t.Fatalf("deduped keyword sources = %v, want %v", growth.Metadata[common.MetadataKeySources], want)
	}
}

func TestBuildNodePayloads_EmptyAnalysisStillYieldsBook(t *testing.T) {
	record := common.RecordInput{
		RecordID:  "rec-2",
		UserID:    "user-1",
		BookTitle: "데미안",
	}

	payloads := BuildNodePayloads(record, common.AnalysisResult{}.Normalize())

	if len(payloads) != 1 || payloads[0].NodeType != common.NodeTypeBook {
		t.Fatalf("expected only the book node, got %+v", payloads)
	}
	if payloads[0].Metadata["aiSummary"] != nil {
		t.Fatalf("aiSummary should be nil without a summary, got %v", payloads[0].Metadata["aiSummary"])
	}
}

func TestBuildNodePayloads_BlankTitleYieldsNothing(t *testing.T) {
	record := common.RecordInput{
		RecordID:     "rec-3",
		UserID:       "user-1",
		BookTitle:    "   ",
		UserKeywords: []string{"성장"},
	}
	analysis := common.AnalysisResult{
		Topics:   []common.TopicInsight{{Label: "성장", Relevance: floatPtr(0.9)}},
		Emotions: []common.EmotionInsight{{Label: "공감", Intensity: floatPtr(0.8)}},
		Authors:  []string{"헤르만 헤세"},
		Genres:   []string{"소설"},
		Keywords: []string{"자아"},
	}

	// Entity nodes must not survive without the book node they would hang off.
	payloads := BuildNodePayloads(record, analysis.Normalize())
	if len(payloads) != 0 {
		t.Fatalf("expected no payloads for a blank title, got %+v", payloads)
	}
}
