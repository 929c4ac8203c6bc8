package gemini

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/readloom/readloom/pkg/ai"
	"github.com/readloom/readloom/pkg/common"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GraphGeminiAnalyzer implements ai.GraphAnalyzer against the Gemini API.
// The response is requested as application/json and parsed flexibly; Gemini
// does not take the same schema parameter the OpenAI-compatible APIs do, so
// the schema lives in the prompt contract instead.
type GraphGeminiAnalyzer struct {
	extractionModel string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *genai.Client
}

// NewGraphGeminiAnalyzerParams contains configuration for creating a new GraphGeminiAnalyzer.
type NewGraphGeminiAnalyzerParams struct {
	ExtractionModel string
	ApiKey          string
}

// NewGraphGeminiAnalyzer creates a new Gemini-based analyzer.
func NewGraphGeminiAnalyzer(
	ctx context.Context,
	params NewGraphGeminiAnalyzerParams,
) (*GraphGeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(params.ApiKey))
	if err != nil {
		return nil, err
	}

	return &GraphGeminiAnalyzer{
		extractionModel: params.ExtractionModel,

		metricsLock: sync.Mutex{},
		metrics: ai.ModelMetrics{
			InputTokens:  0,
			OutputTokens: 0,
			TotalTokens:  0,
			DurationMs:   0,
		},

		Client: client,
	}, nil
}

// Close releases the underlying API client.
func (c *GraphGeminiAnalyzer) Close() error {
	return c.Client.Close()
}

// Analyze sends the record to the extraction model and converts the JSON
// output into the domain result.
func (c *GraphGeminiAnalyzer) Analyze(
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

	model := c.Client.GenerativeModel(options.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ai.AnalysisPrompt)},
	}
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(float32(options.Temperature))

	start := time.Now()
	resp, err := model.GenerateContent(
		ctx,
		genai.Text(ai.BuildAnalysisUserPrompt(input)),
	)
	if err != nil {
		return common.AnalysisResult{}, err
	}
	duration := time.Since(start).Milliseconds()

	if resp.UsageMetadata != nil {
		c.modifyMetrics(ai.ModelMetrics{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
			DurationMs:   duration,
		})
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return common.AnalysisResult{}, fmt.Errorf("no response candidates or content")
	}
	txt, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return common.AnalysisResult{}, fmt.Errorf("unexpected response part type %T", resp.Candidates[0].Content.Parts[0])
	}

	var parsed ai.AnalysisResponse
	if err := ai.UnmarshalFlexible(string(txt), &parsed); err != nil {
		return common.AnalysisResult{}, err
	}
	return parsed.ToResult(), nil
}
