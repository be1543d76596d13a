package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/replylabs/chorus"
)

// CopilotGateway sends requests through the Copilot SDK. Each Send creates a
// fresh session for the requested model, so calls are independent and safe
// to run concurrently.
//
// The Copilot CLI does not report per-call token usage or cost, so Usage is
// always zero. Sampling parameters are likewise controlled by the CLI, so
// temperature and maxTokens are ignored.
type CopilotGateway struct {
	client copilotClient

	startOnce sync.Once
	startErr  error
}

// NewCopilot creates a CopilotGateway backed by the real Copilot client. The
// client process is started lazily on first Send.
func NewCopilot() *CopilotGateway {
	return &CopilotGateway{
		client: newCopilotClient(&copilot.ClientOptions{
			LogLevel:  "error",
			AutoStart: copilot.Bool(false),
		}),
	}
}

// NewCopilotWithClient creates a CopilotGateway with a custom client,
// primarily for tests.
func NewCopilotWithClient(client copilotClient) *CopilotGateway {
	return &CopilotGateway{client: client}
}

func (g *CopilotGateway) Send(ctx context.Context, modelID string, turns []chorus.Turn, temperature float64, maxTokens int) (*Reply, error) {
	// NOTE: the copilot client has an autostart feature, but it misbehaves
	// when triggered from separate goroutines, so start it exactly once here.
	g.startOnce.Do(func() {
		g.startErr = g.client.Start(ctx)
	})
	if g.startErr != nil {
		return nil, fmt.Errorf("copilot failed to start: %w", g.startErr)
	}

	session, err := g.client.CreateSession(ctx, &copilot.SessionConfig{
		Model: modelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	var parts []string
	unsubscribe := session.On(func(event copilot.SessionEvent) {
		if event.Type == copilot.AssistantMessage && event.Data.Content != nil {
			parts = append(parts, *event.Data.Content)
		}
	})
	defer unsubscribe()

	_, err = session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: flattenTurns(turns),
	})
	if err != nil {
		return nil, fmt.Errorf("copilot call failed: %w", err)
	}

	return &Reply{Text: strings.Join(parts, "")}, nil
}

// Close stops the underlying client process.
func (g *CopilotGateway) Close() error {
	return g.client.Stop()
}

// flattenTurns renders the conversation as a single prompt, since copilot
// sessions take one message at a time rather than a turn list.
func flattenTurns(turns []chorus.Turn) string {
	if len(turns) == 1 {
		return turns[0].Content
	}

	var b strings.Builder
	for _, turn := range turns {
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}
