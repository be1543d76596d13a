package gateway

import (
	"context"
	"errors"
	"testing"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/stretchr/testify/require"

	"github.com/replylabs/chorus"
)

type fakeCopilotSession struct {
	content string
	sendErr error
}

func (s *fakeCopilotSession) On(handler copilot.SessionEventHandler) func() {
	content := s.content
	handler(copilot.SessionEvent{
		Type: copilot.AssistantMessage,
		Data: copilot.Data{Content: &content},
	})
	return func() {}
}

func (s *fakeCopilotSession) SendAndWait(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &copilot.SessionEvent{}, nil
}

type fakeCopilotClient struct {
	session  *fakeCopilotSession
	startErr error
	starts   int
	stopped  bool
}

func (c *fakeCopilotClient) CreateSession(ctx context.Context, config *copilot.SessionConfig) (copilotSession, error) {
	return c.session, nil
}

func (c *fakeCopilotClient) Start(ctx context.Context) error {
	c.starts++
	return c.startErr
}

func (c *fakeCopilotClient) Stop() error {
	c.stopped = true
	return nil
}

func TestCopilotGateway(t *testing.T) {
	turns := []chorus.Turn{{Role: chorus.RoleUser, Content: "hello"}}

	t.Run("CollectsAssistantContent", func(t *testing.T) {
		client := &fakeCopilotClient{session: &fakeCopilotSession{content: "hi there"}}
		gw := NewCopilotWithClient(client)

		reply, err := gw.Send(context.Background(), "gpt-4o", turns, 0.2, 256)
		require.NoError(t, err)
		require.Equal(t, "hi there", reply.Text)
		// Copilot does not report usage.
		require.Zero(t, reply.Usage.Cost)
	})

	t.Run("StartsClientExactlyOnce", func(t *testing.T) {
		client := &fakeCopilotClient{session: &fakeCopilotSession{content: "x"}}
		gw := NewCopilotWithClient(client)

		for i := 0; i < 3; i++ {
			_, err := gw.Send(context.Background(), "gpt-4o", turns, 0.2, 256)
			require.NoError(t, err)
		}
		require.Equal(t, 1, client.starts)
	})

	t.Run("StartFailureSurfaces", func(t *testing.T) {
		boom := errors.New("cli not installed")
		client := &fakeCopilotClient{startErr: boom}
		gw := NewCopilotWithClient(client)

		_, err := gw.Send(context.Background(), "gpt-4o", turns, 0.2, 256)
		require.ErrorIs(t, err, boom)
	})

	t.Run("SendFailureSurfaces", func(t *testing.T) {
		boom := errors.New("session dropped")
		client := &fakeCopilotClient{session: &fakeCopilotSession{sendErr: boom}}
		gw := NewCopilotWithClient(client)

		_, err := gw.Send(context.Background(), "gpt-4o", turns, 0.2, 256)
		require.ErrorIs(t, err, boom)
	})

	t.Run("CloseStopsClient", func(t *testing.T) {
		client := &fakeCopilotClient{session: &fakeCopilotSession{}}
		gw := NewCopilotWithClient(client)
		require.NoError(t, gw.Close())
		require.True(t, client.stopped)
	})
}

func TestFlattenTurns(t *testing.T) {
	t.Run("SingleTurnIsBare", func(t *testing.T) {
		require.Equal(t, "just this", flattenTurns([]chorus.Turn{
			{Role: chorus.RoleUser, Content: "just this"},
		}))
	})

	t.Run("MultiTurnKeepsRoles", func(t *testing.T) {
		out := flattenTurns([]chorus.Turn{
			{Role: chorus.RoleSystem, Content: "be brief"},
			{Role: chorus.RoleUser, Content: "hello"},
		})
		require.Equal(t, "system: be brief\nuser: hello\n", out)
	})
}
