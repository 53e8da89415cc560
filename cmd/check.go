package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	futhttp "github.com/tanq16/futload/internal/downloaders/http"
	"github.com/tanq16/futload/internal/output"
	"github.com/tanq16/futload/internal/utils"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [URL...]",
		Short: "Report whether URLs can be downloaded in segments",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := opts.validate(); err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			client := utils.NewFutHTTPClient(opts.httpConfig())
			failed := false
			for _, url := range args {
				target, body, err := futhttp.Probe(cmd.Context(), client, url, opts.dest)
				if err != nil {
					output.PrintError(err.Error())
					failed = true
					continue
				}
				body.Close()
				fmt.Println(describeTarget(target))
			}
			if failed {
				os.Exit(1)
			}
		},
	}
}

func describeTarget(target *futhttp.DownloadTarget) string {
	size := "?"
	if target.SizeKnown() {
		size = output.FormatBytes(target.Size)
	}
	partial := output.FWarning("partial download not supported")
	if target.RangeSupported && target.SizeKnown() {
		partial = output.FSuccess("partial download supported")
	}
	return fmt.Sprintf("%s %s %s", output.FDetail(target.FileName), output.FDebug(size), partial)
}
