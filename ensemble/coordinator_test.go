package ensemble

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/replylabs/chorus"
	"github.com/replylabs/chorus/confidence"
	"github.com/replylabs/chorus/gateway"
	"github.com/replylabs/chorus/selection"
)

// stubScorer maps response texts to fixed overall scores, letting tests pin
// selection outcomes without re-deriving the evaluator's arithmetic.
type stubScorer struct {
	scores map[string]int
}

func (s stubScorer) Evaluate(in confidence.Input) chorus.ConfidenceScore {
	overall := s.scores[in.Response]
	return chorus.ConfidenceScore{Overall: overall, ShouldEscalate: overall < 60}
}

func userTurns(q string) []chorus.Turn {
	return []chorus.Turn{{Role: chorus.RoleUser, Content: q}}
}

func TestRunConfigurationErrors(t *testing.T) {
	gw := gateway.NewMock(gateway.MockConfig{})

	t.Run("UnknownStrategy", func(t *testing.T) {
		_, err := New(gw).Run(context.Background(), chorus.EnsembleRequest{
			Models:   []string{"m1"},
			Turns:    userTurns("q"),
			Strategy: "roulette",
		})
		require.ErrorIs(t, err, selection.ErrUnknownStrategy)
	})

	t.Run("NoModels", func(t *testing.T) {
		_, err := New(gw).Run(context.Background(), chorus.EnsembleRequest{
			Turns:    userTurns("q"),
			Strategy: selection.NameConfidence,
		})
		require.ErrorIs(t, err, ErrNoModels)
	})
}

func TestRunAllModelsFailed(t *testing.T) {
	rateLimited := errors.New("rate limited")
	gw := gateway.NewMock(gateway.MockConfig{
		Failures: map[string]error{
			"m1": rateLimited,
			"m2": errors.New("connection reset"),
		},
	})

	_, err := New(gw).Run(context.Background(), chorus.EnsembleRequest{
		Models:   []string{"m1", "m2"},
		Turns:    userTurns("q"),
		Strategy: selection.NameConfidence,
	})
	require.ErrorIs(t, err, ErrAllModelsFailed)
	// The per-call reasons survive in the joined error.
	require.ErrorIs(t, err, rateLimited)
	require.Contains(t, err.Error(), "connection reset")
}

func TestRunPartialFailure(t *testing.T) {
	gw := gateway.NewMock(gateway.MockConfig{
		Replies:  map[string]string{"good": "the answer is forty two"},
		Failures: map[string]error{"bad": errors.New("boom")},
	})

	result, err := New(gw).Run(context.Background(), chorus.EnsembleRequest{
		Models:   []string{"bad", "good"},
		Turns:    userTurns("q"),
		Strategy: selection.NameConfidence,
	})
	require.NoError(t, err)

	require.Equal(t, "good", result.SelectedModel)
	require.Equal(t, "the answer is forty two", result.SelectedText)
	require.Len(t, result.Candidates, 1)
	require.Equal(t, "good", result.Candidates[0].Model)
	// One valid response cannot disagree with itself.
	require.Equal(t, 100.0, result.Agreement)
}

func TestRunCancelled(t *testing.T) {
	gw := gateway.NewMock(gateway.MockConfig{Latency: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(gw).Run(ctx, chorus.EnsembleRequest{
		Models:   []string{"m1"},
		Turns:    userTurns("q"),
		Strategy: selection.NameConfidence,
	})
	require.ErrorIs(t, err, ErrCancelled)
	require.NotErrorIs(t, err, ErrAllModelsFailed)
}

func TestRunMajorityEndToEnd(t *testing.T) {
	// Three near-identical answers (pairwise Jaccard ≥ 0.8) form one cluster;
	// majority must pick its highest-confidence member and report high
	// agreement.
	texts := map[string]string{
		"m1": "the capital of france is paris",
		"m2": "the capital of france is paris indeed",
		"m3": "paris is the capital of france",
	}
	gw := gateway.NewMock(gateway.MockConfig{Replies: texts})
	scorer := stubScorer{scores: map[string]int{
		texts["m1"]: 72,
		texts["m2"]: 75,
		texts["m3"]: 90,
	}}

	result, err := New(gw, WithScorer(scorer)).Run(context.Background(), chorus.EnsembleRequest{
		Models:   []string{"m1", "m2", "m3"},
		Turns:    userTurns("what is the capital of france?"),
		Strategy: selection.NameMajority,
	})
	require.NoError(t, err)

	require.Equal(t, "m3", result.SelectedModel)
	require.Equal(t, texts["m3"], result.SelectedText)
	require.GreaterOrEqual(t, result.Agreement, 80.0)
	require.Equal(t, selection.NameMajority, result.Strategy)
	require.Len(t, result.Candidates, 3)
	require.Equal(t, []int{72, 75, 90}, []int{
		result.Candidates[0].Confidence,
		result.Candidates[1].Confidence,
		result.Candidates[2].Confidence,
	})
}

func TestRunIsDeterministic(t *testing.T) {
	texts := map[string]string{
		"m1": "alpha beta gamma",
		"m2": "delta epsilon zeta",
		"m3": "alpha beta gamma delta",
	}
	gw := gateway.NewMock(gateway.MockConfig{Replies: texts})
	scorer := stubScorer{scores: map[string]int{
		texts["m1"]: 80,
		texts["m2"]: 80,
		texts["m3"]: 80,
	}}

	req := chorus.EnsembleRequest{
		Models:   []string{"m1", "m2", "m3"},
		Turns:    userTurns("q"),
		Strategy: selection.NameConfidence,
	}

	first, err := New(gw, WithScorer(scorer)).Run(context.Background(), req)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := New(gw, WithScorer(scorer)).Run(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, first.SelectedModel, again.SelectedModel)

		models := make([]string, 0, len(again.Candidates))
		for _, c := range again.Candidates {
			models = append(models, c.Model)
		}
		require.Equal(t, []string{"m1", "m2", "m3"}, models)
	}
}

func TestRunContested(t *testing.T) {
	gw := gateway.NewMock(gateway.MockConfig{Replies: map[string]string{
		"m1": "alpha beta",
		"m2": "gamma delta",
	}})

	result, err := New(gw).Run(context.Background(), chorus.EnsembleRequest{
		Models:       []string{"m1", "m2"},
		Turns:        userTurns("q"),
		Strategy:     selection.NameConfidence,
		MinAgreement: 70,
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Agreement)
	require.True(t, result.Contested)
}

// sequenceGateway returns scripted replies in call order, for exercising the
// second call the self-correction pass makes.
type sequenceGateway struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (g *sequenceGateway) Send(ctx context.Context, modelID string, turns []chorus.Turn, temperature float64, maxTokens int) (*gateway.Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	text := g.replies[g.calls]
	g.calls++
	return &gateway.Reply{Text: text, Usage: gateway.Usage{Cost: 0.001}}, nil
}

func TestSelfCorrection(t *testing.T) {
	t.Run("KeptWhenStrictlyBetter", func(t *testing.T) {
		gw := &sequenceGateway{replies: []string{"draft answer", "improved answer"}}
		scorer := stubScorer{scores: map[string]int{
			"draft answer":    70,
			"improved answer": 85,
		}}

		result, err := New(gw, WithScorer(scorer)).Run(context.Background(), chorus.EnsembleRequest{
			Models:      []string{"m1"},
			Turns:       userTurns("q"),
			Strategy:    selection.NameConfidence,
			SelfCorrect: true,
		})
		require.NoError(t, err)

		require.True(t, result.SelfCorrected)
		require.Equal(t, "improved answer", result.SelectedText)
		require.Equal(t, 85, result.Confidence.Overall)
		require.Equal(t, 2, gw.calls)
		// Both the original call and the correction attempt are billed.
		require.InDelta(t, 0.002, result.TotalCost, 1e-9)
	})

	t.Run("DiscardedWhenNotBetter", func(t *testing.T) {
		gw := &sequenceGateway{replies: []string{"draft answer", "worse answer"}}
		scorer := stubScorer{scores: map[string]int{
			"draft answer": 70,
			"worse answer": 70,
		}}

		result, err := New(gw, WithScorer(scorer)).Run(context.Background(), chorus.EnsembleRequest{
			Models:      []string{"m1"},
			Turns:       userTurns("q"),
			Strategy:    selection.NameConfidence,
			SelfCorrect: true,
		})
		require.NoError(t, err)

		require.False(t, result.SelfCorrected)
		require.Equal(t, "draft answer", result.SelectedText)
		require.Equal(t, 70, result.Confidence.Overall)
		// The attempt still ran and its cost still counts.
		require.Equal(t, 2, gw.calls)
		require.InDelta(t, 0.002, result.TotalCost, 1e-9)
	})

	t.Run("SkippedAboveThreshold", func(t *testing.T) {
		gw := &sequenceGateway{replies: []string{"confident answer"}}
		scorer := stubScorer{scores: map[string]int{"confident answer": 90}}

		result, err := New(gw, WithScorer(scorer)).Run(context.Background(), chorus.EnsembleRequest{
			Models:      []string{"m1"},
			Turns:       userTurns("q"),
			Strategy:    selection.NameConfidence,
			SelfCorrect: true,
		})
		require.NoError(t, err)

		require.False(t, result.SelfCorrected)
		require.Equal(t, 1, gw.calls)
	})
}

func TestProgressEvents(t *testing.T) {
	gw := gateway.NewMock(gateway.MockConfig{Replies: map[string]string{
		"m1": "same answer",
		"m2": "same answer",
	}})

	coord := New(gw)

	var mu sync.Mutex
	var events []EventType
	coord.OnProgress(func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev.EventType)
	})

	_, err := coord.Run(context.Background(), chorus.EnsembleRequest{
		Models:   []string{"m1", "m2"},
		Turns:    userTurns("q"),
		Strategy: selection.NameConfidence,
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, EventRoundStart, events[0])
	require.Equal(t, EventRoundComplete, events[len(events)-1])

	counts := map[EventType]int{}
	for _, ev := range events {
		counts[ev]++
	}
	require.Equal(t, 2, counts[EventModelCallComplete])
	require.Equal(t, 1, counts[EventSelectionMade])
	require.Zero(t, counts[EventCorrectionApplied])
}

func TestPerModelGateways(t *testing.T) {
	ctrl := gomock.NewController(t)

	defaultGw := gateway.NewMockModelGateway(ctrl)
	defaultGw.EXPECT().
		Send(gomock.Any(), "shared-model", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&gateway.Reply{Text: "from the default gateway"}, nil)

	specialGw := gateway.NewMockModelGateway(ctrl)
	specialGw.EXPECT().
		Send(gomock.Any(), "special-model", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&gateway.Reply{Text: "from the special gateway"}, nil)

	result, err := New(defaultGw, WithGatewayFor("special-model", specialGw)).Run(context.Background(), chorus.EnsembleRequest{
		Models:   []string{"shared-model", "special-model"},
		Turns:    userTurns("q"),
		Strategy: selection.NameConfidence,
	})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)
	require.Equal(t, "from the default gateway", result.Candidates[0].Text)
	require.Equal(t, "from the special gateway", result.Candidates[1].Text)
}

func TestCallTimeout(t *testing.T) {
	gw := gateway.NewMock(gateway.MockConfig{
		Replies: map[string]string{"fast": "quick answer"},
		Latency: 50 * time.Millisecond,
	})

	// A 1ms budget forces every call over its deadline.
	_, err := New(gw, WithCallTimeout(time.Millisecond)).Run(context.Background(), chorus.EnsembleRequest{
		Models:   []string{"fast"},
		Turns:    userTurns("q"),
		Strategy: selection.NameConfidence,
	})
	require.ErrorIs(t, err, ErrAllModelsFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunConvenienceWrapper(t *testing.T) {
	gw := gateway.NewMock(gateway.MockConfig{Replies: map[string]string{"m1": "answer"}})

	result, err := Run(context.Background(), gw, chorus.EnsembleRequest{
		Models:   []string{"m1"},
		Turns:    userTurns("q"),
		Strategy: selection.NameConfidence,
	})
	require.NoError(t, err)
	require.Equal(t, "answer", result.SelectedText)
}
