// Package ensemble orchestrates one response round across several model
// backends: concurrent fan-out, per-candidate confidence scoring, strategy
// selection, the agreement metric, and the optional self-correction pass.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/replylabs/chorus"
	"github.com/replylabs/chorus/confidence"
	"github.com/replylabs/chorus/gateway"
	"github.com/replylabs/chorus/selection"
	"github.com/replylabs/chorus/similarity"
)

// DefaultCallTimeout bounds each model call when the coordinator is not
// configured otherwise. Exceeding it is treated identically to a transport
// failure; the call is not retried within the round.
const DefaultCallTimeout = 30 * time.Second

// correctionThreshold is the selected-confidence level below which an
// enabled self-correction pass runs.
const correctionThreshold = 80

// Scorer computes a composite confidence score for one response.
// [confidence.Evaluator] is the production implementation.
type Scorer interface {
	Evaluate(in confidence.Input) chorus.ConfidenceScore
}

// Coordinator runs ensemble rounds. It holds no per-round state and is safe
// for concurrent use; cost and latency accounting is purely additive over
// each round's own results.
type Coordinator struct {
	defaultGateway gateway.ModelGateway
	gateways       map[string]gateway.ModelGateway
	scorer         Scorer
	callTimeout    time.Duration
	maxParallel    int

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithGatewayFor routes calls for a specific model id through its own
// gateway instead of the default.
func WithGatewayFor(modelID string, gw gateway.ModelGateway) Option {
	return func(c *Coordinator) {
		c.gateways[modelID] = gw
	}
}

// WithScorer replaces the confidence scorer.
func WithScorer(s Scorer) Option {
	return func(c *Coordinator) {
		c.scorer = s
	}
}

// WithCallTimeout sets the per-call timeout for the round's model calls.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.callTimeout = d
	}
}

// WithMaxParallel caps how many model calls run at once. Zero means one
// goroutine per model.
func WithMaxParallel(n int) Option {
	return func(c *Coordinator) {
		c.maxParallel = n
	}
}

// New creates a Coordinator that sends every call through gw unless a
// per-model gateway is configured.
func New(gw gateway.ModelGateway, opts ...Option) *Coordinator {
	c := &Coordinator{
		defaultGateway: gw,
		gateways:       map[string]gateway.ModelGateway{},
		scorer:         confidence.New(),
		callTimeout:    DefaultCallTimeout,
		listeners:      []ProgressListener{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run is a convenience wrapper that builds a default Coordinator for gw and
// runs a single round.
func Run(ctx context.Context, gw gateway.ModelGateway, req chorus.EnsembleRequest) (*chorus.EnsembleResult, error) {
	return New(gw).Run(ctx, req)
}

// OnProgress registers a progress listener.
func (c *Coordinator) OnProgress(listener ProgressListener) {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	c.listeners = append(c.listeners, listener)
}

func (c *Coordinator) notifyProgress(event ProgressEvent) {
	c.progressMu.Lock()
	listeners := make([]ProgressListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run executes one ensemble round. It fails only when the configuration is
// invalid, the caller cancels, or every configured model call fails;
// individual call failures are folded into zero-confidence candidates.
//
// Two rounds with identical inputs and identical model outputs select the
// same model: candidates stay in request model order end to end, and every
// strategy tie-break is defined over that order.
func (c *Coordinator) Run(ctx context.Context, req chorus.EnsembleRequest) (*chorus.EnsembleResult, error) {
	// Configuration errors fail fast, before any network call.
	strat, err := selection.Parse(req.Strategy)
	if err != nil {
		return nil, err
	}
	if len(req.Models) == 0 {
		return nil, ErrNoModels
	}

	c.notifyProgress(ProgressEvent{
		EventType:   EventRoundStart,
		TotalModels: len(req.Models),
	})

	candidates := c.dispatch(ctx, req)

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}

	valid, callErrs := c.scoreCandidates(req, candidates)
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllModelsFailed, errors.Join(callErrs...))
	}

	selected := strat.Select(valid)
	agreement := similarity.Agreement(valid)

	// Score the selection once more; its agreement factor now reflects the
	// full set of valid peers.
	peerTexts := candidateTexts(valid)
	finalScore := c.scorer.Evaluate(confidence.Input{
		Response:      selected.Text,
		Query:         req.Query(),
		Context:       req.Context,
		PeerResponses: peerTexts,
	})

	c.notifyProgress(ProgressEvent{
		EventType: EventSelectionMade,
		Model:     selected.Model,
		Details: map[string]any{
			"strategy":   strat.Name(),
			"confidence": finalScore.Overall,
		},
	})

	totalCost := 0.0
	totalTime := int64(0)
	for _, cand := range candidates {
		totalCost += cand.Cost
		totalTime += cand.LatencyMs
	}

	selfCorrected := false
	if req.SelfCorrect && finalScore.Overall < correctionThreshold {
		attempt, attemptScore, ok := c.correct(ctx, req, selected, peerTexts)
		totalCost += attempt.Cost
		totalTime += attempt.LatencyMs

		// Keep the rewrite only when it scores strictly higher.
		if ok && attemptScore.Overall > finalScore.Overall {
			selected = attempt
			finalScore = attemptScore
			selfCorrected = true
			c.notifyProgress(ProgressEvent{
				EventType: EventCorrectionApplied,
				Model:     selected.Model,
				Details:   map[string]any{"confidence": finalScore.Overall},
			})
		}
	}

	result := &chorus.EnsembleResult{
		SelectedText:  selected.Text,
		SelectedModel: selected.Model,
		Confidence:    finalScore,
		Candidates:    valid,
		Agreement:     agreement,
		Strategy:      strat.Name(),
		SelfCorrected: selfCorrected,
		TotalCost:     totalCost,
		TotalTimeMs:   totalTime,
	}

	if req.MinAgreement > 0 && agreement < req.MinAgreement {
		result.Contested = true
		slog.Warn("round agreement below threshold",
			"agreement", agreement, "min_agreement", req.MinAgreement)
	}

	c.notifyProgress(ProgressEvent{
		EventType:  EventRoundComplete,
		Model:      selected.Model,
		DurationMs: totalTime,
		Details: map[string]any{
			"confidence": finalScore.Overall,
			"agreement":  agreement,
		},
	})

	return result, nil
}

// dispatch sends one gateway call per requested model, concurrently. The
// returned slice is indexed by request model order regardless of completion
// order. Calls failures are recorded on the candidate, never returned.
func (c *Coordinator) dispatch(ctx context.Context, req chorus.EnsembleRequest) []chorus.CandidateResponse {
	candidates := make([]chorus.CandidateResponse, len(req.Models))

	var g errgroup.Group
	if c.maxParallel > 0 {
		g.SetLimit(c.maxParallel)
	}

	for i, modelID := range req.Models {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
			defer cancel()

			start := time.Now()
			reply, err := c.gatewayFor(modelID).Send(callCtx, modelID, req.Turns, req.Temperature, req.MaxTokens)
			latency := time.Since(start).Milliseconds()

			if err != nil {
				slog.Debug("model call failed", "model", modelID, "error", err)
				candidates[i] = chorus.CandidateResponse{
					Model:     modelID,
					LatencyMs: latency,
					Err:       err,
				}
			} else {
				candidates[i] = chorus.CandidateResponse{
					Model:     modelID,
					Text:      reply.Text,
					LatencyMs: latency,
					Cost:      reply.Usage.Cost,
				}
			}

			c.notifyProgress(ProgressEvent{
				EventType:   EventModelCallComplete,
				Model:       modelID,
				TotalModels: len(req.Models),
				DurationMs:  latency,
				Details:     map[string]any{"failed": err != nil},
			})
			return nil
		})
	}

	// Goroutines absorb their own call failures, so Wait only synchronizes.
	_ = g.Wait()

	return candidates
}

// scoreCandidates computes confidence for every successful candidate and
// splits the round into valid candidates (request order preserved) and the
// call errors behind the failed ones.
func (c *Coordinator) scoreCandidates(req chorus.EnsembleRequest, candidates []chorus.CandidateResponse) ([]chorus.CandidateResponse, []error) {
	var peerTexts []string
	for _, cand := range candidates {
		if cand.Valid() {
			peerTexts = append(peerTexts, cand.Text)
		}
	}

	valid := make([]chorus.CandidateResponse, 0, len(candidates))
	var callErrs []error

	for i := range candidates {
		if !candidates[i].Valid() {
			callErrs = append(callErrs, fmt.Errorf("%s: %w", candidates[i].Model, candidates[i].Err))
			continue
		}

		score := c.scorer.Evaluate(confidence.Input{
			Response:      candidates[i].Text,
			Query:         req.Query(),
			Context:       req.Context,
			PeerResponses: peerTexts,
		})
		candidates[i].Confidence = score.Overall
		valid = append(valid, candidates[i])
	}

	return valid, callErrs
}

func (c *Coordinator) gatewayFor(modelID string) gateway.ModelGateway {
	if gw, ok := c.gateways[modelID]; ok {
		return gw
	}
	return c.defaultGateway
}

func candidateTexts(candidates []chorus.CandidateResponse) []string {
	texts := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		texts = append(texts, cand.Text)
	}
	return texts
}
