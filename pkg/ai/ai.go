package ai

import (
	"context"

	"github.com/readloom/readloom/pkg/common"
)

// AnalyzerInput is the text record handed to the analyzer: the free-text
// journal content plus the book title and the user's own keywords for
// context.
type AnalyzerInput struct {
	Content      string
	BookTitle    string
	UserKeywords []string
}

// GraphAnalyzer extracts structured graph signals from one reading record.
// Implementations call an external language model and may fail with transport
// or parse errors; the pipeline treats any such failure as non-retryable
// within a single run.
type GraphAnalyzer interface {
	Analyze(
		ctx context.Context,
		input AnalyzerInput,
		opts ...GenerateOption,
	) (common.AnalysisResult, error)
	GetMetrics() ModelMetrics
	ResetMetrics()
}

// ModelMetrics contains accumulated token usage and timing from analyzer
// requests since the last reset.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// ContentTokenBudget caps how much journal text is sent to the model.
// Entries above the budget are truncated before prompting.
const ContentTokenBudget = 6000

// GenerateOptions holds configuration for analyzer model requests.
type GenerateOptions struct {
	Model       string
	Temperature float64
}

// GenerateOption is a functional option for configuring analyzer requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that overrides the model used for the
// analysis request.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature returns a GenerateOption that sets the sampling
// temperature. Extraction favors low values for deterministic output.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}
