package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llmgate/promptcoder/internal/config"
	"github.com/llmgate/promptcoder/internal/handlers"
	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/refine"
)

var fields models.PromptFields

var refineCmd = &cobra.Command{
	Use:   "refine [prompt idea]",
	Short: "Refine one prompt and print the result",
	Long: `Refine a prompt idea given as arguments or on stdin. Setting --objective
switches to structured mode and the fields are assembled before refinement.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, err := config.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		request, err := buildRefineRequest(cmd, args)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), appConfig, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		return runRefine(cmd, a.service, request)
	},
}

func init() {
	refineCmd.Flags().StringVar(&fields.Role, "role", "", "structured mode: the role the model should take")
	refineCmd.Flags().StringVar(&fields.Objective, "objective", "", "structured mode: what the prompt should achieve")
	refineCmd.Flags().StringVar(&fields.Context, "context", "", "structured mode: background information")
	refineCmd.Flags().StringVar(&fields.Instructions, "instructions", "", "structured mode: specific instructions")
	refineCmd.Flags().StringVar(&fields.Constraints, "constraints", "", "structured mode: constraints on the output")
}

func buildRefineRequest(cmd *cobra.Command, args []string) (models.RefinePromptRequest, error) {
	if structuredFlagsSet(cmd) {
		return models.RefinePromptRequest{Mode: refine.ModeStructured, Fields: fields}, nil
	}

	prompt := strings.Join(args, " ")
	if prompt == "" {
		input, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return models.RefinePromptRequest{}, fmt.Errorf("failed to read prompt from stdin: %w", err)
		}
		prompt = string(input)
	}
	return models.RefinePromptRequest{Mode: refine.ModeSimple, Prompt: prompt}, nil
}

func structuredFlagsSet(cmd *cobra.Command) bool {
	for _, name := range []string{"role", "objective", "context", "instructions", "constraints"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func runRefine(cmd *cobra.Command, refiner handlers.Refiner, request models.RefinePromptRequest) error {
	refined, err := refiner.RefineRequest(cmd.Context(), request)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, refined.Prompt)
	if len(refined.Improvements) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Key improvements:")
		for _, improvement := range refined.Improvements {
			fmt.Fprintf(out, "  - %s\n", improvement)
		}
	}
	return nil
}
