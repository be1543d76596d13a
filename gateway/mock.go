package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/replylabs/chorus"
)

// MockConfig scripts a MockGateway.
type MockConfig struct {
	// Replies maps model ids to canned reply text. Models without an entry
	// get a generated placeholder reply.
	Replies map[string]string

	// Failures maps model ids to the error their calls should return.
	Failures map[string]error

	// Latency is simulated per call, interruptible by context cancellation.
	Latency time.Duration

	// CostPerCall is reported as the usage cost of every successful call.
	CostPerCall float64
}

// MockGateway is a scripted in-process gateway for offline runs and tests.
type MockGateway struct {
	cfg MockConfig
}

// NewMock creates a MockGateway.
func NewMock(cfg MockConfig) *MockGateway {
	return &MockGateway{cfg: cfg}
}

func (m *MockGateway) Send(ctx context.Context, modelID string, turns []chorus.Turn, temperature float64, maxTokens int) (*Reply, error) {
	if m.cfg.Latency > 0 {
		select {
		case <-time.After(m.cfg.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err, ok := m.cfg.Failures[modelID]; ok {
		return nil, err
	}

	text, ok := m.cfg.Replies[modelID]
	if !ok {
		text = fmt.Sprintf("Mock reply from %s: %s", modelID, lastUserContent(turns))
	}

	return &Reply{
		Text: text,
		Usage: Usage{
			Cost:       m.cfg.CostPerCall,
			TokensUsed: len(text) / 4,
		},
	}, nil
}

func lastUserContent(turns []chorus.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == chorus.RoleUser {
			return turns[i].Content
		}
	}
	return ""
}
