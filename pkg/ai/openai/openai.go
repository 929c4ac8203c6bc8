package openai

import (
	"sync"

	"github.com/readloom/readloom/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIAnalyzer implements ai.GraphAnalyzer against an OpenAI-compatible
// chat completion API with structured output.
//
// A GraphOpenAIAnalyzer should be created using NewGraphOpenAIAnalyzer.
type GraphOpenAIAnalyzer struct {
	extractionModel string

	chatURL string
	chatKey string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewGraphOpenAIAnalyzerParams defines the configuration for creating a new
// GraphOpenAIAnalyzer.
//
// ExtractionModel specifies the model used for record analysis.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL means the official OpenAI endpoint.
type NewGraphOpenAIAnalyzerParams struct {
	ExtractionModel string

	ChatURL string
	ChatKey string
}

// NewGraphOpenAIAnalyzer creates and returns a new GraphOpenAIAnalyzer
// configured with the provided parameters.
//
// Example:
//
//	params := openai.NewGraphOpenAIAnalyzerParams{
//		ExtractionModel: "gpt-4o-mini",
//		ChatURL:         "https://api.openai.com/v1",
//		ChatKey:         os.Getenv("OPENAI_API_KEY"),
//	}
//	analyzer := openai.NewGraphOpenAIAnalyzer(params)
func NewGraphOpenAIAnalyzer(
	params NewGraphOpenAIAnalyzerParams,
) *GraphOpenAIAnalyzer {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)

	return &GraphOpenAIAnalyzer{
		extractionModel: params.ExtractionModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		metricsLock: sync.Mutex{},
		metrics: ai.ModelMetrics{
			InputTokens:  0,
			OutputTokens: 0,
			TotalTokens:  0,
			DurationMs:   0,
		},

		ChatClient: chatClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
