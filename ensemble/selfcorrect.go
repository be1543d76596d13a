package ensemble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/replylabs/chorus"
	"github.com/replylabs/chorus/confidence"
)

// correct asks the selected model to revise its own draft against the round's
// knowledge context. A failed correction call never fails the round; the
// caller keeps the original selection and only pays the attempt's cost.
func (c *Coordinator) correct(ctx context.Context, req chorus.EnsembleRequest, selected chorus.CandidateResponse, peerTexts []string) (chorus.CandidateResponse, chorus.ConfidenceScore, bool) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	turns := []chorus.Turn{
		{Role: chorus.RoleUser, Content: correctionPrompt(req, selected.Text)},
	}

	start := time.Now()
	reply, err := c.gatewayFor(selected.Model).Send(callCtx, selected.Model, turns, req.Temperature, req.MaxTokens)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		slog.Debug("self-correction call failed", "model", selected.Model, "error", err)
		return chorus.CandidateResponse{Model: selected.Model, LatencyMs: latency, Err: err}, chorus.ConfidenceScore{}, false
	}

	attempt := chorus.CandidateResponse{
		Model:     selected.Model,
		Text:      reply.Text,
		LatencyMs: latency,
		Cost:      reply.Usage.Cost,
	}

	score := c.scorer.Evaluate(confidence.Input{
		Response:      attempt.Text,
		Query:         req.Query(),
		Context:       req.Context,
		PeerResponses: peerTexts,
	})
	attempt.Confidence = score.Overall

	return attempt, score, true
}

func correctionPrompt(req chorus.EnsembleRequest, draft string) string {
	var sb strings.Builder

	sb.WriteString("Review and improve your draft answer to the question below. ")
	sb.WriteString("Fix factual errors, remove unsupported claims, and keep the answer grounded in the provided context. ")
	sb.WriteString("Reply with the improved answer only.\n\n")

	fmt.Fprintf(&sb, "Question:\n%s\n\n", req.Query())

	if len(req.Context) > 0 {
		sb.WriteString("Context:\n")
		for _, snippet := range req.Context {
			fmt.Fprintf(&sb, "- %s\n", snippet.Content)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Draft answer:\n%s\n", draft)

	return sb.String()
}
