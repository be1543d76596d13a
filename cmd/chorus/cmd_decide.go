package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/replylabs/chorus/policy"
)

func newDecideCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decide <confidence>",
		Short: "Show the action policy for a confidence score",
		Long: `Show which action the policy recommends for a given overall
confidence score (0 to 100).`,
		Args:          cobra.ExactArgs(1),
		RunE:          runDecide,
		SilenceErrors: true,
	}
}

func runDecide(cmd *cobra.Command, args []string) error {
	confidence, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid confidence %q: expected an integer", args[0])
	}
	if confidence < 0 || confidence > 100 {
		return fmt.Errorf("invalid confidence %d: expected 0 to 100", confidence)
	}

	decision := policy.DecideAction(confidence)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n", decision.Action) //nolint:errcheck
	if decision.Message != "" {
		fmt.Fprintf(w, "%s\n", decision.Message) //nolint:errcheck
	}
	return nil
}
