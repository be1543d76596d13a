package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replylabs/chorus/internal/config"
	"github.com/replylabs/chorus/internal/validation"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <round.yaml>",
		Short: "Validate a round file without running it",
		Long: `Validate a round YAML file against the round schema and the loader's
semantic checks (known strategy, resolvable gateways) without calling
any model.`,
		Args:          cobra.ExactArgs(1),
		RunE:          runCheck,
		SilenceErrors: true,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	schemaErrs, err := validation.ValidateRoundFile(args[0])
	if err != nil {
		return err
	}
	if len(schemaErrs) > 0 {
		fmt.Fprintf(w, "%s: %d schema error(s)\n", args[0], len(schemaErrs)) //nolint:errcheck
		for _, e := range schemaErrs {
			fmt.Fprintf(w, "  %s\n", e) //nolint:errcheck
		}
		return fmt.Errorf("round file is not valid")
	}

	// Schema-valid files can still fail semantic checks, e.g. a model
	// referencing a gateway that the gateways map does not define.
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: valid (%d models, strategy %s)\n", args[0], len(cfg.Models), cfg.Strategy) //nolint:errcheck
	return nil
}
