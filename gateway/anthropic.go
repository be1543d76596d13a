package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/replylabs/chorus"
)

// anthropicPricing is USD per million tokens, keyed by model family
// substring. Unknown models report zero cost rather than failing the call.
var anthropicPricing = map[string]tokenPricing{
	"opus":   {input: 15.0, output: 75.0},
	"sonnet": {input: 3.0, output: 15.0},
	"haiku":  {input: 0.80, output: 4.0},
}

type tokenPricing struct {
	input  float64
	output float64
}

// AnthropicGateway sends requests through the Anthropic Messages API.
type AnthropicGateway struct {
	client anthropic.Client
}

// NewAnthropic creates an AnthropicGateway. An empty apiKey falls back to
// the ANTHROPIC_API_KEY environment variable.
func NewAnthropic(apiKey string) (*AnthropicGateway, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	return &AnthropicGateway{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

func (g *AnthropicGateway) Send(ctx context.Context, modelID string, turns []chorus.Turn, temperature float64, maxTokens int) (*Reply, error) {
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelID),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
	}

	var system []string
	for _, turn := range turns {
		switch turn.Role {
		case chorus.RoleSystem:
			system = append(system, turn.Content)
		case chorus.RoleAssistant:
			params.Messages = append(params.Messages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			params.Messages = append(params.Messages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(system, "\n\n")},
		}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &Reply{
		Text: text.String(),
		Usage: Usage{
			Cost:       anthropicCost(modelID, resp.Usage.InputTokens, resp.Usage.OutputTokens),
			TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

func anthropicCost(modelID string, inputTokens, outputTokens int64) float64 {
	for family, pricing := range anthropicPricing {
		if strings.Contains(modelID, family) {
			return (float64(inputTokens)*pricing.input + float64(outputTokens)*pricing.output) / 1e6
		}
	}
	return 0
}
