package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"squeeze/internal/batch"
	"squeeze/internal/config"
	"squeeze/internal/display"
	"squeeze/internal/logging"
	"squeeze/internal/runner"
	"squeeze/internal/tui"
)

var compressCmd = &cobra.Command{
	Use:   "compress [flags] [dir...]",
	Short: "Compress images that no earlier run has processed",
	Long: `Compress walks each input folder, skips files recorded in the ledger, and
re-encodes the rest in batches. Results that are not smaller than the original
are discarded. Every processed file is added to the ledger, and a CSV report
plus a run-log entry are written at the end of the run.

Input folders come from the arguments or from the "inputs" config key.`,
	RunE: runCompress,
}

func runCompress(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Inputs = args
	}
	if err := cfg.Validate(osFs); err != nil {
		return err
	}

	useTUI := cfg.TUI == config.TUIAlways ||
		(cfg.TUI == config.TUIAuto && isatty.IsTerminal(os.Stdout.Fd()))

	var console io.Writer = os.Stderr
	if useTUI {
		console = nil
	}
	closer, err := logging.Init(cfg.Log.Level, cfg.Log.File, console)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()

	var updates chan batch.ProgressUpdate
	var uiDone <-chan struct{}
	if useTUI {
		updates = make(chan batch.ProgressUpdate, 64)
		program := tea.NewProgram(tui.NewModel(updates))
		uiDone = startProgress(program.Run, updates, cmd.ErrOrStderr(), func() { os.Exit(130) })
	}

	res, runErr := runner.New(osFs, cfg, updates).Run(cmd.Context())
	if updates != nil {
		close(updates)
		<-uiDone
	}
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if res.NothingToDo() {
		fmt.Fprintln(out, tui.DimStyle.Render("Operation done: no files to compress"))
		fmt.Fprintln(out, tui.RenderSummary([]tui.SummaryRow{
			{Label: "Files found", Value: fmt.Sprintf("%d", res.Discovered)},
			{Label: "Already processed", Value: fmt.Sprintf("%d", res.Skipped)},
		}))
		return nil
	}

	fmt.Fprintln(out, tui.RenderSummary([]tui.SummaryRow{
		{Label: "Files found", Value: fmt.Sprintf("%d", res.Discovered)},
		{Label: "Already processed", Value: fmt.Sprintf("%d", res.Skipped)},
		{Label: "Files compressed", Value: fmt.Sprintf("%d", res.Compressed)},
		{Label: "Files not compressed", Value: fmt.Sprintf("%d", res.Failed)},
		{Label: "Space saved", Value: display.FormatSize(res.SavedBytes)},
	}))
	if res.ReportPath != "" {
		fmt.Fprintf(out, "Report written to: %s\n", tui.PathStyle.Render(absPath(res.ReportPath)))
	}
	if cfg.Overwrite {
		fmt.Fprintln(out, "Originals were replaced in place where compression helped.")
	} else {
		fmt.Fprintf(out, "Compressed files written to: %s\n", tui.PathStyle.Render(absPath(cfg.Output)))
	}
	if res.Compressed == 0 && res.Skipped == 0 {
		fmt.Fprintln(out, tui.WarnStyle.Render("Warning: no file could be compressed."))
	}
	return nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func bindFlag(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func init() {
	f := compressCmd.Flags()
	f.StringP("output", "o", "output", "destination folder for compressed copies")
	f.IntP("quality", "q", 70, "lossy quality level, 1-100")
	f.BoolP("overwrite", "w", false, "replace originals in place instead of writing copies")
	f.IntP("batch-size", "b", 10, "files per batch")
	f.IntP("concurrency", "j", 4, "files compressed in parallel within a batch")
	f.BoolP("recursive", "r", true, "descend into subfolders")
	f.Bool("images-only", false, "skip files that are not images instead of reporting them as failures")
	f.Bool("retry-failed", false, "retry files an earlier run could not compress")
	f.Duration("timeout", 2*time.Minute, "per-file time limit for decode and encode (0 disables)")
	f.String("report-dir", ".", "folder for compression_report_<timestamp>.csv")
	f.String("run-log", "./log.txt", "append-only text log of run summaries")
	f.String("tui", string(config.TUIAuto), "progress display: auto, always, never")

	bindFlag("output", f.Lookup("output"))
	bindFlag("quality", f.Lookup("quality"))
	bindFlag("overwrite", f.Lookup("overwrite"))
	bindFlag("batch_size", f.Lookup("batch-size"))
	bindFlag("concurrency", f.Lookup("concurrency"))
	bindFlag("recursive", f.Lookup("recursive"))
	bindFlag("images_only", f.Lookup("images-only"))
	bindFlag("retry_failed", f.Lookup("retry-failed"))
	bindFlag("timeout", f.Lookup("timeout"))
	bindFlag("report_dir", f.Lookup("report-dir"))
	bindFlag("run_log", f.Lookup("run-log"))
	bindFlag("tui", f.Lookup("tui"))

	rootCmd.AddCommand(compressCmd)
}
