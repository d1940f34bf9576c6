package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"squeeze/internal/config"
	"squeeze/internal/ledger"
	"squeeze/internal/tui"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or reset the record of processed files",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every file recorded in the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		l, err := ledger.Load(ledger.OpenStore(osFs, cfg.Ledger))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		compressed := 0
		for _, e := range l.Entries() {
			status := tui.OKStyle.Render("compressed")
			if e.WasCompressed {
				compressed++
			} else {
				status = tui.WarnStyle.Render("not compressed")
			}
			fmt.Fprintf(out, "%s  %s %s\n", tui.PathStyle.Render(e.Path), status,
				tui.DimStyle.Render(fmt.Sprintf("(quality %d)", e.QualityLevel)))
		}

		fmt.Fprintln(out, tui.RenderSummary([]tui.SummaryRow{
			{Label: "Ledger", Value: cfg.Ledger},
			{Label: "Entries", Value: fmt.Sprintf("%d", l.Len())},
			{Label: "Compressed", Value: fmt.Sprintf("%d", compressed)},
			{Label: "Not compressed", Value: fmt.Sprintf("%d", l.Len()-compressed)},
		}))
		return nil
	},
}

var ledgerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the ledger so the next run processes every file again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		if err := ledger.OpenStore(osFs, cfg.Ledger).Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ledger cleared: %s\n", cfg.Ledger)
		return nil
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerListCmd, ledgerClearCmd)
	rootCmd.AddCommand(ledgerCmd)
}
