package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/futload/internal/output"
	"github.com/tanq16/futload/internal/utils"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE] [OPTIONS]",
		Short: "Download every link listed in a YAML file",
		Long: `Download every link listed in a YAML file. Each entry may override the
destination directory and thread count:

  - link: https://example.com/a.iso
    dir: isos
    threads: 8
  - link: https://example.com/b.tar.gz`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := utils.ReadBatchList(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			jobs := buildJobsFromBatch(entries, &opts)
			if len(jobs) == 0 {
				output.PrintError("No valid jobs found in the batch file")
				os.Exit(1)
			}
			os.Exit(runJobs(cmd.Context(), jobs))
		},
	}
	return cmd
}

func buildJobsFromBatch(entries []utils.BatchEntry, o *options) []utils.FutJob {
	var jobs []utils.FutJob
	for _, entry := range entries {
		job := o.job(entry.URL)
		if entry.Destination != "" {
			job.Destination = entry.Destination
		}
		if entry.Threads != nil {
			job.Threads = *entry.Threads
		}
		jobs = append(jobs, job)
	}
	return jobs
}
