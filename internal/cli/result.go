package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resultJSON bool

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Show or clear the last analysis result",
}

var resultShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last analysis result",
	Args:  cobra.NoArgs,
	RunE:  runResultShow,
}

var resultClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the last analysis result",
	Args:  cobra.NoArgs,
	RunE:  runResultClear,
}

func init() {
	resultShowCmd.Flags().BoolVar(&resultJSON, "json", false, "print JSON")

	resultCmd.AddCommand(resultShowCmd, resultClearCmd)
	rootCmd.AddCommand(resultCmd)
}

func runResultShow(cmd *cobra.Command, args []string) error {
	stored, ok := env.cache.CurrentResult()
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "No cached result")
		return nil
	}
	return printResult(cmd.OutOrStdout(), stored.Claim, stored.Result, resultJSON)
}

func runResultClear(cmd *cobra.Command, args []string) error {
	if err := env.cache.ClearCurrentResult(); err != nil {
		return fmt.Errorf("failed to clear result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cleared")
	return nil
}
