package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finlint/internal/cost"
	"finlint/internal/history"
)

var limitFlag int

type historyJSON struct {
	Runs  []history.Run  `json:"runs"`
	Trend *history.Trend `json:"trend"`
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scan runs and the latest cost trend",
	Args:  cobra.NoArgs,
	RunE:  historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&limitFlag, "limit", "n", 10, "Number of runs to show")
	historyCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format (console, json)")
	rootCmd.AddCommand(historyCmd)
}

func historyCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := history.Open(cmd.Context(), cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), limitFlag)
	if err != nil {
		return err
	}

	var trend *history.Trend
	if len(runs) > 0 {
		t, err := store.Compare(cmd.Context(), runs[0])
		if err != nil {
			return err
		}
		trend = &t
	}

	if cfg.Output.Format == "json" {
		if runs == nil {
			runs = []history.Run{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(historyJSON{Runs: runs, Trend: trend})
	}

	if len(runs) == 0 {
		fmt.Printf("No runs recorded in %s\n", store.Path())
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tFILES\tFINDINGS\tMONTHLY\tROOT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.FilesScanned, r.FindingsCount, cost.FormatCost(r.MonthlyCost), r.Root)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nLatest: %s\n", trendLine(*trend))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
