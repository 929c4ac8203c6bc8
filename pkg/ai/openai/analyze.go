package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/readloom/readloom/pkg/ai"
	"github.com/readloom/readloom/pkg/common"

	"github.com/openai/openai-go/v3"
)

// Analyze sends the record to the extraction model with a JSON schema
// enforcing the response shape and converts the output into the domain
// result.
func (c *GraphOpenAIAnalyzer) Analyze(
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

	content, err := ai.TruncateToTokens(input.Content, ai.ContentTokenBudget)
	if err != nil {
		return common.AnalysisResult{}, err
	}
	input.Content = content

	schema := ai.GenerateSchema(&ai.AnalysisResponse{})
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "record_analysis",
		Description: openai.String("Graph signals extracted from a reading journal entry"),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(ai.AnalysisPrompt),
			openai.UserMessage(ai.BuildAnalysisUserPrompt(input)),
		},
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return common.AnalysisResult{}, err
	}
	duration := time.Since(start).Milliseconds()

	metrics := ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	}
	c.modifyMetrics(metrics)

	if len(response.Choices) == 0 {
		return common.AnalysisResult{}, fmt.Errorf("no choices in response from model")
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return common.AnalysisResult{}, fmt.Errorf(
			"empty response from model (finish_reason: %s)",
			response.Choices[0].FinishReason,
		)
	}

	var parsed ai.AnalysisResponse
	if err := ai.UnmarshalFlexible(message, &parsed); err != nil {
		return common.AnalysisResult{}, err
	}
	return parsed.ToResult(), nil
}
