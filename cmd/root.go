package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
	osFs    = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "squeeze",
	Short: "squeeze - batch-compress images, skipping ones already done",
	Long: `squeeze re-encodes every new image under one or more input folders at a
chosen quality, keeps the result only when it is smaller, and remembers what
it processed so the next run only touches new files.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SilenceErrors = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./squeeze.yaml or $HOME/.squeeze/squeeze.yaml)")
	rootCmd.PersistentFlags().String("ledger", "./log.csv", "ledger of processed files (.csv, or .db for SQLite)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "also append logs to this file")

	bindFlag("ledger", rootCmd.PersistentFlags().Lookup("ledger"))
	bindFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}
