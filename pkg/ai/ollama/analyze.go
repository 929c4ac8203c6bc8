package ollama

import (
	"context"
	"encoding/json"

	"github.com/readloom/readloom/pkg/ai"
	"github.com/readloom/readloom/pkg/common"

	"github.com/ollama/ollama/api"
)

// Analyze sends the record to the extraction model with a JSON schema as the
// response format and converts the output into the domain result.
func (c *GraphOllamaAnalyzer) Analyze(
	ctx context.Context,
	input ai.AnalyzerInput,
	opts ...ai.GenerateOption,
) (common.AnalysisResult, error) {
	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return common.AnalysisResult{}, err
	}
	defer c.reqLock.Release(1)

	content, err := ai.TruncateToTokens(input.Content, ai.ContentTokenBudget)
	if err != nil {
		return common.AnalysisResult{}, err
	}
	input.Content = content
	prompt := ai.BuildAnalysisUserPrompt(input)

	schemaObj := ai.GenerateSchema(&ai.AnalysisResponse{})
	formatBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return common.AnalysisResult{}, err
	}
	var format json.RawMessage = formatBytes

	stream := false
	req := &api.ChatRequest{
		Model: options.Model,
		Messages: []api.Message{
			{Role: "system", Content: ai.AnalysisPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:  &stream,
		Format:  format,
		Options: map[string]any{"temperature": options.Temperature},
	}

	// Size the context window to the prompt; Ollama defaults to 4096 and
	// silently truncates above it.
	promptTokens, err := ai.CountTokens(ai.AnalysisPrompt + prompt)
	if err != nil {
		return common.AnalysisResult{}, err
	}
	if tokens := promptTokens + 200; tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return common.AnalysisResult{}, err
	}

	durationMs := final.Metrics.TotalDuration.Milliseconds()

	metrics := ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   durationMs,
	}
	c.modifyMetrics(metrics)

	var parsed ai.AnalysisResponse
	if err := ai.UnmarshalFlexible(final.Message.Content, &parsed); err != nil {
		return common.AnalysisResult{}, err
	}
	return parsed.ToResult(), nil
}
