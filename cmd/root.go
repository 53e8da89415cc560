package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	futhttp "github.com/tanq16/futload/internal/downloaders/http"
	"github.com/tanq16/futload/internal/output"
	"github.com/tanq16/futload/internal/scheduler"
	"github.com/tanq16/futload/internal/utils"
)

var FutloadVersion = "dev"

var opts options

var rootCmd = &cobra.Command{
	Use:     "futload [URL...]",
	Short:   "futload is a segmented CLI file downloader",
	Version: FutloadVersion,
	Args:    cobra.MinimumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(opts.debug)
		return applyEnvDefaults(cmd.Flags(), ".env")
	},
	Run: func(cmd *cobra.Command, args []string) {
		jobs := make([]utils.FutJob, 0, len(args))
		for _, url := range args {
			jobs = append(jobs, opts.job(url))
		}
		os.Exit(runJobs(cmd.Context(), jobs))
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	opts.bind(rootCmd.PersistentFlags())
	rootCmd.SilenceUsage = true
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newCheckCmd())
}

// runJobs validates the shared options, runs every job and returns the exit code.
func runJobs(ctx context.Context, jobs []utils.FutJob) int {
	if err := prepare(jobs); err != nil {
		output.PrintError(err.Error())
		return 1
	}
	reports := scheduler.Run(ctx, jobs, opts.workers, &futhttp.HTTPDownloader{}, os.Stdout)
	failed, partial := summarize(reports)
	for _, report := range partial {
		output.PrintWarning(fmt.Sprintf("%s: %d segment(s) failed, output is incomplete", report.Result.Target.OutputPath(), len(report.Result.Failed)))
		for _, segErr := range report.Result.Failed {
			fmt.Println(output.FDebug("  " + segErr.Error()))
		}
	}
	if len(failed) > 0 {
		fmt.Println()
		output.PrintError("Encountered failed operation(s)")
		return 1
	}
	return 0
}

func prepare(jobs []utils.FutJob) error {
	if err := opts.validate(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, job := range jobs {
		if seen[job.Destination] {
			continue
		}
		seen[job.Destination] = true
		if err := utils.PrepareDestination(job.Destination); err != nil {
			return err
		}
	}
	return nil
}

func summarize(reports []scheduler.Report) (failed, partial []scheduler.Report) {
	for _, report := range reports {
		switch {
		case report.Err != nil:
			failed = append(failed, report)
		case report.Result != nil && report.Result.Partial():
			partial = append(partial, report)
		}
	}
	return failed, partial
}
