package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/replylabs/chorus"
)

// openaiPricing is USD per million tokens, keyed by model family substring.
var openaiPricing = map[string]tokenPricing{
	"gpt-4o-mini": {input: 0.15, output: 0.60},
	"gpt-4o":      {input: 2.50, output: 10.0},
	"gpt-4.1":     {input: 2.00, output: 8.0},
}

// OpenAIGateway sends requests through the OpenAI chat completions API.
type OpenAIGateway struct {
	client openai.Client
}

// NewOpenAI creates an OpenAIGateway. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable.
func NewOpenAI(apiKey string) (*OpenAIGateway, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
	}

	return &OpenAIGateway{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

func (g *OpenAIGateway) Send(ctx context.Context, modelID string, turns []chorus.Turn, temperature float64, maxTokens int) (*Reply, error) {
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chorus.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case chorus.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(modelID),
		Messages:    messages,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices for model %s", modelID)
	}

	return &Reply{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			Cost:       openaiCost(modelID, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
			TokensUsed: int(resp.Usage.TotalTokens),
		},
	}, nil
}

func openaiCost(modelID string, promptTokens, completionTokens int64) float64 {
	// Longer prefixes first so gpt-4o-mini doesn't match the gpt-4o entry.
	for _, family := range []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1"} {
		if strings.Contains(modelID, family) {
			pricing := openaiPricing[family]
			return (float64(promptTokens)*pricing.input + float64(completionTokens)*pricing.output) / 1e6
		}
	}
	return 0
}
