package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mcao2/truthlens/internal/api"
	"github.com/mcao2/truthlens/internal/flow"
	"github.com/mcao2/truthlens/internal/session"
	"github.com/mcao2/truthlens/internal/ui"
	"github.com/mcao2/truthlens/internal/verdict"
)

var (
	analyzeYes  bool
	analyzeJSON bool
	renderWidth = 80
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text | url | -]",
	Short: "Verify a claim, a paragraph or a URL",
	Long: `Analyze extracts the main claim from the input, lets you confirm or
edit it, then prints the verdict and the evidence behind it.

Pass "-" to read the input from stdin.

Example:
  truthlens analyze "Drinking coffee cures cancer"
  truthlens analyze https://example.com/article --yes
  echo "some paragraph" | truthlens analyze - --yes --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVarP(&analyzeYes, "yes", "y", false, "analyze the extracted claim without asking")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON")

	rootCmd.AddCommand(analyzeCmd)
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

// confirmClaim lets the user edit the proposed claim before analysis
var confirmClaim = func(claim string) (string, error) {
	err := huh.NewText().
		Title("Claim to verify").
		Description("Edit if needed, then submit to analyze").
		Value(&claim).
		Run()
	return claim, err
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	ctrl := flow.NewController(env.client, env.cache,
		flow.WithLogger(env.logger.Named("flow")),
		flow.WithContext(cmd.Context()),
		flow.WithTimeout(env.cfg.Timeout()),
		flow.WithoutRestore(),
	)

	req, err := ctrl.Submit(input)
	if err != nil {
		if errors.Is(err, flow.ErrEmptyInput) {
			return errors.New("nothing to analyze: pass some text or a URL")
		}
		return err
	}

	extraction := ctrl.Extract(req)
	ctrl.ApplyExtraction(extraction)
	if errors.Is(extraction.Err, api.ErrUnauthorized) {
		return sessionError(extraction.Err)
	}
	if extraction.Fallback {
		env.logger.Info("no claim extracted, analyzing input as written", zap.Error(extraction.Err))
	}

	if !analyzeYes {
		claim, err := confirmClaim(ctrl.Claim())
		if err != nil {
			return err
		}
		if err := ctrl.EditClaim(claim); err != nil {
			return err
		}
	}

	req, err = ctrl.Confirm()
	if err != nil {
		if errors.Is(err, flow.ErrEmptyClaim) {
			return errors.New("the claim is empty")
		}
		return err
	}

	result := ctrl.Analyze(req)
	ctrl.ApplyAnalysis(result)
	if result.Err != nil {
		if ctrl.Unauthorized() {
			return sessionError(result.Err)
		}
		return errors.New(ctrl.ErrorMessage())
	}

	return printResult(cmd.OutOrStdout(), ctrl.Claim(), ctrl.Result(), analyzeJSON)
}

func vocabulary() verdict.Vocabulary {
	v, err := verdict.VocabularyByName(env.cfg.StanceVocabulary)
	if err != nil {
		return verdict.VocabularyClient
	}
	return v
}

// printResult writes a result as rendered text or as JSON
func printResult(w io.Writer, claim string, r *api.AnalyzeResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(session.StoredResult{Claim: claim, Result: r})
	}

	theme, ok := ui.Themes[env.cfg.Theme]
	if !ok {
		theme = ui.Themes["default"]
	}
	fmt.Fprintln(w, ui.NewResultView(theme, vocabulary()).Render(claim, r, renderWidth))
	return nil
}
