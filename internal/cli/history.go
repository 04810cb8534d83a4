package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mcao2/truthlens/internal/history"
	"github.com/mcao2/truthlens/internal/ui"
	"github.com/mcao2/truthlens/internal/verdict"
)

var (
	historyLocal  bool
	historyJSON   bool
	historyFilter string
	historyYes    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and manage past analyses",
	Long: `History reads the server-side history when you are signed in and the
local mirror otherwise (or with --local).`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past analyses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one past analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete one past analysis",
	Args:    cobra.ExactArgs(1),
	RunE:    runHistoryRm,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all past analyses",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.PersistentFlags().BoolVar(&historyLocal, "local", false, "use the local history mirror")
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "print JSON")
	historyCmd.PersistentFlags().StringVar(&historyFilter, "filter", "", "only entries whose claim or verdict contains this text")
	historyClearCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "do not ask for confirmation")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyRmCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func historySource() history.Source {
	if historyLocal {
		return history.NewLocal(env.cache)
	}
	return history.Select(env.client, env.cache, env.tokens)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	src := historySource()
	entries, err := src.List(ctx)
	if err != nil {
		return sessionError(err)
	}
	entries = history.Filter(entries, historyFilter)

	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No analyses yet.")
		return nil
	}

	for _, e := range entries {
		age := "-"
		if !e.CreatedAt.IsZero() {
			age = humanize.Time(e.CreatedAt)
		}
		style := verdict.Classify(e.Verdict)
		fmt.Fprintf(out, "%s  %s  %s  %s\n",
			ui.Pad(ui.Truncate(e.ID, 8), 8),
			ui.Pad(ui.Truncate(style.Icon()+" "+e.Verdict, 16), 16),
			ui.Pad(age, 14),
			ui.Truncate(strings.Join(strings.Fields(e.Claim), " "), 60),
		)
	}

	where := "local"
	if src.Remote() {
		where = "server"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d entries (%s)\n", len(entries), where)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	entry, err := historySource().Open(ctx, args[0])
	if err != nil {
		return sessionError(err)
	}
	return printResult(cmd.OutOrStdout(), entry.Claim, entry.Result, historyJSON)
}

func runHistoryRm(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := historySource().Delete(ctx, args[0]); err != nil {
		return sessionError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

// confirmClear asks before wiping history
var confirmClear = func(where string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete all entries from the %s history?", where)).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	src := historySource()
	where := "local"
	if src.Remote() {
		where = "server"
	}

	if !historyYes {
		ok, err := confirmClear(where)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := src.Clear(ctx); err != nil {
		return sessionError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s history\n", where)
	return nil
}
