package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/replylabs/chorus"
	"github.com/replylabs/chorus/ensemble"
	"github.com/replylabs/chorus/gateway"
	"github.com/replylabs/chorus/internal/config"
	"github.com/replylabs/chorus/policy"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <round.yaml>",
		Short: "Run one ensemble round from a round file",
		Long: `Run one ensemble round from a round YAML file.

Every configured model is queried concurrently, each response is
scored for confidence, and one answer is selected by the round's
strategy. The exit code reflects the action policy: 0 when the answer
is usable, 1 when it should be escalated to a human.`,
		Args:          cobra.ExactArgs(1),
		RunE:          runRound,
		SilenceErrors: true,
	}
	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().Bool("progress", false, "Print progress events while the round runs")
	return cmd
}

// --- JSON output structs ---

type runJSONReport struct {
	Timestamp     string                  `json:"timestamp"`
	Round         string                  `json:"round"`
	SelectedModel string                  `json:"selectedModel"`
	SelectedText  string                  `json:"selectedText"`
	Confidence    chorus.ConfidenceScore  `json:"confidence"`
	Agreement     float64                 `json:"agreement"`
	Strategy      string                  `json:"strategy"`
	Contested     bool                    `json:"contested"`
	SelfCorrected bool                    `json:"selfCorrected"`
	TotalCost     float64                 `json:"totalCost"`
	TotalTimeMs   int64                   `json:"totalTimeMs"`
	Action        policy.Action           `json:"action"`
	ActionMessage string                  `json:"actionMessage,omitempty"`
	Candidates    []candidateJSON         `json:"candidates"`
}

type candidateJSON struct {
	Model      string  `json:"model"`
	Confidence int     `json:"confidence"`
	LatencyMs  int64   `json:"latencyMs"`
	Cost       float64 `json:"cost"`
}

func runRound(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: expected text or json", format)
	}
	showProgress, err := cmd.Flags().GetBool("progress")
	if err != nil {
		return err
	}

	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	gateways := make(map[string]gateway.ModelGateway, len(cfg.Gateways))
	for name, gc := range cfg.Gateways {
		gw, err := gateway.Create(gc.Kind, gc.Params)
		if err != nil {
			return fmt.Errorf("building gateway %q: %w", name, err)
		}
		gateways[name] = gw
	}

	opts := []ensemble.Option{
		ensemble.WithCallTimeout(cfg.CallTimeout()),
	}
	for _, m := range cfg.Models {
		if m.GatewayName() != config.DefaultGatewayName {
			opts = append(opts, ensemble.WithGatewayFor(m.ID, gateways[m.GatewayName()]))
		}
	}

	coord := ensemble.New(gateways[config.DefaultGatewayName], opts...)
	if showProgress && format == "text" {
		w := cmd.OutOrStdout()
		coord.OnProgress(func(ev ensemble.ProgressEvent) {
			switch ev.EventType {
			case ensemble.EventModelCallComplete:
				fmt.Fprintf(w, "  %s answered in %dms\n", ev.Model, ev.DurationMs) //nolint:errcheck
			case ensemble.EventCorrectionApplied:
				fmt.Fprintf(w, "  self-correction improved %s\n", ev.Model) //nolint:errcheck
			}
		})
	}

	result, err := coord.Run(cmd.Context(), cfg.Request())
	if err != nil {
		return err
	}

	decision := policy.DecideAction(result.Confidence.Overall)

	if format == "json" {
		if err := outputRunJSON(cmd, cfg.Name, result, decision); err != nil {
			return err
		}
	} else {
		displayRunResult(cmd, cfg.Name, result, decision)
	}

	if decision.Action == policy.ActionEscalateToHuman {
		return &EscalationError{
			Message: fmt.Sprintf("round %q: confidence %d requires human review", cfg.Name, result.Confidence.Overall),
		}
	}
	return nil
}

//nolint:errcheck // display function, fmt.Fprintf errors to stdout are not actionable
func displayRunResult(cmd *cobra.Command, roundName string, result *chorus.EnsembleResult, decision policy.Decision) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "\nRound: %s\n", roundName)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("─", 46))

	fmt.Fprintf(w, "Selected: %s (confidence %d, %s)\n", result.SelectedModel, result.Confidence.Overall, result.Strategy)
	fmt.Fprintf(w, "Agreement: %.1f%%", result.Agreement)
	if result.Contested {
		fmt.Fprintf(w, "  (contested)")
	}
	fmt.Fprintf(w, "\n")
	if result.SelfCorrected {
		fmt.Fprintf(w, "Self-corrected: yes\n")
	}
	fmt.Fprintf(w, "Cost: $%.6f  Model time: %dms\n\n", result.TotalCost, result.TotalTimeMs)

	fmt.Fprintf(w, "%s\n\n", result.SelectedText)

	for _, note := range result.Confidence.Reasoning {
		fmt.Fprintf(w, "  [%s] %s\n", note.Dimension, note.Message)
	}
	fmt.Fprintf(w, "\nAction: %s\n", decision.Action)
	if decision.Message != "" {
		fmt.Fprintf(w, "%s\n", decision.Message)
	}

	if len(result.Candidates) > 1 {
		fmt.Fprintf(w, "\nCandidates:\n")
		for _, c := range result.Candidates {
			fmt.Fprintf(w, "  %-30s confidence %3d  %5dms  $%.6f\n", c.Model, c.Confidence, c.LatencyMs, c.Cost)
		}
	}
}

func outputRunJSON(cmd *cobra.Command, roundName string, result *chorus.EnsembleResult, decision policy.Decision) error {
	report := runJSONReport{
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		Round:         roundName,
		SelectedModel: result.SelectedModel,
		SelectedText:  result.SelectedText,
		Confidence:    result.Confidence,
		Agreement:     result.Agreement,
		Strategy:      result.Strategy,
		Contested:     result.Contested,
		SelfCorrected: result.SelfCorrected,
		TotalCost:     result.TotalCost,
		TotalTimeMs:   result.TotalTimeMs,
		Action:        decision.Action,
		ActionMessage: decision.Message,
	}
	for _, c := range result.Candidates {
		report.Candidates = append(report.Candidates, candidateJSON{
			Model:      c.Model,
			Confidence: c.Confidence,
			LatencyMs:  c.LatencyMs,
			Cost:       c.Cost,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), buf.String())
	return err
}
