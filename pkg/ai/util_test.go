package ai

import (
	"strings"
	"testing"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  AnalysisResponse
	}{
		{
			name:  "valid json object",
			input: `{"aiSummary":"A tale of growth.","keywords":["self"]}`,
			want:  AnalysisResponse{AISummary: "A tale of growth.", Keywords: []string{"self"}},
		},
		{
			name:  "unquoted keys and single quotes",
			input: `{aiSummary: 'A tale of growth.', keywords: ['self']}`,
			want:  AnalysisResponse{AISummary: "A tale of growth.", Keywords: []string{"self"}},
		},
		{
			name:  "trailing comma",
			input: `{"aiSummary":"A tale of growth.","keywords":["self"],}`,
			want:  AnalysisResponse{AISummary: "A tale of growth.", Keywords: []string{"self"}},
		},
		{
			name:  "missing end bracket",
			input: `{"aiSummary":"A tale of growth.","keywords":["self"`,
			want:  AnalysisResponse{AISummary: "A tale of growth.", Keywords: []string{"self"}},
		},
		{
			name:  "stringified json",
			input: `"{\"aiSummary\":\"A tale of growth.\",\"keywords\":[\"self\"]}"`,
			want:  AnalysisResponse{AISummary: "A tale of growth.", Keywords: []string{"self"}},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"aiSummary\": \"A tale of growth.\",\n  \"keywords\": [\"self\"]\n}\n",
			want:  AnalysisResponse{AISummary: "A tale of growth.", Keywords: []string{"self"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got AnalysisResponse
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.AISummary != tc.want.AISummary {
				t.Fatalf("UnmarshalFlexible() aiSummary = %q, want %q", got.AISummary, tc.want.AISummary)
			}
			if len(got.Keywords) != 1 || got.Keywords[0] != tc.want.Keywords[0] {
				t.Fatalf("UnmarshalFlexible() keywords = %v, want %v", got.Keywords, tc.want.Keywords)
			}
		})
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	var got AnalysisResponse
	if err := UnmarshalFlexible("the model refused to answer", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestUnmarshalFlexible_ScoredInsights(t *testing.T) {
	input := `{"topics":[{"label":"성장","relevance":0.85}],"emotions":[{"label":"희망","intensity":0.92}]}`

	var got AnalysisResponse
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got.Topics) != 1 || got.Topics[0].Label != "성장" {
		t.Fatalf("UnmarshalFlexible() topics = %+v", got.Topics)
	}
	if got.Topics[0].Relevance == nil || *got.Topics[0].Relevance != 0.85 {
		t.Fatalf("UnmarshalFlexible() relevance = %v, want 0.85", got.Topics[0].Relevance)
	}
	if len(got.Emotions) != 1 || got.Emotions[0].Intensity == nil || *got.Emotions[0].Intensity != 0.92 {
		t.Fatalf("UnmarshalFlexible() emotions = %+v", got.Emotions)
	}
}

func TestToResult_DropsEmptyLabels(t *testing.T) {
	relevance := 0.5
	resp := AnalysisResponse{
		Topics:   []AnalysisTopic{{Label: "  성장  ", Relevance: &relevance}, {Label: "   "}},
		Emotions: []AnalysisEmotion{{Label: ""}},
		Authors:  []string{" 헤르만 헤세 ", ""},
		Keywords: []string{"self", "  "},
	}

	got := resp.ToResult()
	if len(got.Topics) != 1 || got.Topics[0].Label != "성장" {
		t.Fatalf("ToResult() topics = %+v", got.Topics)
	}
	if len(got.Emotions) != 0 {
		t.Fatalf("ToResult() emotions = %+v, want empty", got.Emotions)
	}
	if len(got.Authors) != 1 || got.Authors[0] != "헤르만 헤세" {
		t.Fatalf("ToResult() authors = %+v", got.Authors)
	}
	if len(got.Keywords) != 1 || got.Keywords[0] != "self" {
		t.Fatalf("ToResult() keywords = %+v", got.Keywords)
	}
}

func TestTruncateToTokens(t *testing.T) {
	long := strings.Repeat("reading journal entry about a novel ", 200)

	truncated, err := TruncateToTokens(long, 50)
	if err != nil {
		t.Fatalf("TruncateToTokens() error = %v", err)
	}
	if len(truncated) >= len(long) {
		t.Fatalf("TruncateToTokens() did not shorten input")
	}

	count, err := CountTokens(truncated)
	if err != nil {
		t.Fatalf("CountTokens() error = %v", err)
	}
	if count > 50 {
		t.Fatalf("CountTokens() = %d, want <= 50", count)
	}

	short, err := TruncateToTokens("short entry", 50)
	if err != nil {
		t.Fatalf("TruncateToTokens() error = %v", err)
	}
	if short != "short entry" {
		t.Fatalf("TruncateToTokens() modified input below budget: %q", short)
	}
}
