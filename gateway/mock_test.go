package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/replylabs/chorus"
)

func TestMockGateway(t *testing.T) {
	turns := []chorus.Turn{{Role: chorus.RoleUser, Content: "what is the refund window?"}}

	t.Run("CannedReply", func(t *testing.T) {
		gw := NewMock(MockConfig{
			Replies:     map[string]string{"model-a": "14 days"},
			CostPerCall: 0.002,
		})

		reply, err := gw.Send(context.Background(), "model-a", turns, 0.2, 256)
		require.NoError(t, err)
		require.Equal(t, "14 days", reply.Text)
		require.Equal(t, 0.002, reply.Usage.Cost)
	})

	t.Run("GeneratedReplyEchoesQuestion", func(t *testing.T) {
		gw := NewMock(MockConfig{})

		reply, err := gw.Send(context.Background(), "unknown-model", turns, 0.2, 256)
		require.NoError(t, err)
		require.Contains(t, reply.Text, "unknown-model")
		require.Contains(t, reply.Text, "what is the refund window?")
	})

	t.Run("ScriptedFailure", func(t *testing.T) {
		boom := errors.New("rate limited")
		gw := NewMock(MockConfig{Failures: map[string]error{"model-a": boom}})

		_, err := gw.Send(context.Background(), "model-a", turns, 0.2, 256)
		require.ErrorIs(t, err, boom)
	})

	t.Run("LatencyInterruptedByCancel", func(t *testing.T) {
		gw := NewMock(MockConfig{Latency: time.Minute})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := gw.Send(ctx, "model-a", turns, 0.2, 256)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("CancelledContextFailsImmediately", func(t *testing.T) {
		gw := NewMock(MockConfig{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := gw.Send(ctx, "model-a", turns, 0.2, 256)
		require.ErrorIs(t, err, context.Canceled)
	})
}
