// Package gateway defines the ModelGateway boundary the ensemble coordinator
// fans out against, plus concrete gateways for the Anthropic, OpenAI and
// Copilot backends and a mock for offline runs and tests.
package gateway

import (
	"context"

	"github.com/replylabs/chorus"
)

//go:generate go tool mockgen -source=gateway.go -destination=mock_modelgateway.go -package=gateway

// Usage is the cost metadata a backend reports for one call. Backends that
// report no usage leave it zero.
type Usage struct {
	// Cost is the monetary cost of the call in USD.
	Cost float64 `json:"cost"`

	// TokensUsed is the total token count, prompt plus completion.
	TokensUsed int `json:"tokens_used"`
}

// Reply is the outcome of one successful model call.
type Reply struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// ModelGateway sends a chat-style request to a single model backend.
//
// Implementations must be safe to call concurrently from multiple goroutines
// with different model ids, and must honor context cancellation promptly;
// the coordinator relies on both for its fan-out.
type ModelGateway interface {
	Send(ctx context.Context, modelID string, turns []chorus.Turn, temperature float64, maxTokens int) (*Reply, error)
}
