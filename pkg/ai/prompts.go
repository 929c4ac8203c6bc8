package ai

import (
	"fmt"
	"strings"

	"github.com/readloom/readloom/pkg/common"
)

// AnalysisPrompt is the system prompt for record analysis. The response is
// constrained to AnalysisResponse via structured output, so the prompt
// focuses on what to extract rather than on output formatting.
const AnalysisPrompt = `You are an analyst that converts reading-journal entries into graph signals.

Given a journal entry about a book, extract:
- aiSummary: a one or two sentence summary of the entry in the entry's own language
- topics: the main themes of the entry, each with a relevance score between 0 and 1
- emotions: the emotions the reader expresses, each with an intensity score between 0 and 1
- authors: the book's author(s) if they can be determined from the title or the entry
- genres: the book's likely genre(s)
- keywords: short keywords capturing the entry, including refinements of the user's own keywords

Keep labels short (one to three words). Use the language of the entry for labels.
Do not invent authors or genres you cannot reasonably infer.`

// AnalysisTopic mirrors common.TopicInsight on the model wire format.
type AnalysisTopic struct {
	Label     string   `json:"label" jsonschema_description:"Short label of the theme"`
	Relevance *float64 `json:"relevance,omitempty" jsonschema_description:"Relevance of the theme to the entry, between 0 and 1"`
}

// AnalysisEmotion mirrors common.EmotionInsight on the model wire format.
type AnalysisEmotion struct {
	Label     string   `json:"label" jsonschema_description:"Short label of the emotion"`
	Intensity *float64 `json:"intensity,omitempty" jsonschema_description:"Intensity of the emotion, between 0 and 1"`
}

// AnalysisResponse is the structured output contract shared by every
// analyzer adapter.
type AnalysisResponse struct {
	AISummary string            `json:"aiSummary" jsonschema_description:"One or two sentence summary of the entry"`
	Topics    []AnalysisTopic   `json:"topics" jsonschema_description:"Main themes of the entry"`
	Emotions  []AnalysisEmotion `json:"emotions" jsonschema_description:"Emotions the reader expresses"`
	Authors   []string          `json:"authors" jsonschema_description:"Author(s) of the book"`
	Genres    []string          `json:"genres" jsonschema_description:"Likely genre(s) of the book"`
	Keywords  []string          `json:"keywords" jsonschema_description:"Short keywords capturing the entry"`
}

// ToResult converts the wire response into the domain result, trimming
// labels and dropping entries whose label is empty after trimming.
func (r AnalysisResponse) ToResult() common.AnalysisResult {
	result := common.AnalysisResult{
		AISummary: strings.TrimSpace(r.AISummary),
		Topics:    make([]common.TopicInsight, 0, len(r.Topics)),
		Emotions:  make([]common.EmotionInsight, 0, len(r.Emotions)),
		Authors:   trimStrings(r.Authors),
		Genres:    trimStrings(r.Genres),
		Keywords:  trimStrings(r.Keywords),
	}

	for _, topic := range r.Topics {
		label := strings.TrimSpace(topic.Label)
		if label == "" {
			continue
		}
		result.Topics = append(result.Topics, common.TopicInsight{Label: label, Relevance: topic.Relevance})
	}
	for _, emotion := range r.Emotions {
		label := strings.TrimSpace(emotion.Label)
		if label == "" {
			continue
		}
		result.Emotions = append(result.Emotions, common.EmotionInsight{Label: label, Intensity: emotion.Intensity})
	}

	return result
}

func trimStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// BuildAnalysisUserPrompt renders the record into the user message for the
// analysis request.
func BuildAnalysisUserPrompt(input AnalyzerInput) string {
	keywordText := "(no user keywords)"
	if len(input.UserKeywords) > 0 {
		lines := make([]string, 0, len(input.UserKeywords))
		for _, keyword := range input.UserKeywords {
			lines = append(lines, "- "+keyword)
		}
		keywordText = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(
		"Book title: %s\n\nJournal entry:\n%s\n\nUser keywords:\n%s",
		input.BookTitle,
		input.Content,
		keywordText,
	)
}
