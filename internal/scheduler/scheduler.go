package scheduler

import (
	"context"
	"fmt"
	"io"

	futhttp "github.com/tanq16/futload/internal/downloaders/http"
	"github.com/tanq16/futload/internal/output"
	"github.com/tanq16/futload/internal/utils"
	"golang.org/x/sync/errgroup"
)

type Downloader interface {
	Download(ctx context.Context, job *utils.FutJob, sink output.LineSink) (*futhttp.Result, error)
}

// Report is the outcome of one job. Err is set when the job could not be
// downloaded at all; Result.Failed is set when some segments failed.
type Report struct {
	Job    utils.FutJob
	Result *futhttp.Result
	Err    error
}

// Run downloads jobs with at most numWorkers in flight and returns one report per
// job, in job order. With a single worker each job writes its own progress line
// to w; with more, a Manager multiplexes them.
func Run(ctx context.Context, jobs []utils.FutJob, numWorkers int, dl Downloader, w io.Writer) []Report {
	log := utils.GetLogger("scheduler")
	numWorkers = max(1, numWorkers)
	reports := make([]Report, len(jobs))

	var mgr *output.Manager
	ids := make([]int, len(jobs))
	if numWorkers > 1 && len(jobs) > 1 {
		mgr = output.NewManager(w)
		for i, job := range jobs {
			ids[i] = mgr.RegisterFunction(job.URL)
		}
		mgr.StartDisplay()
	}
	log.Debug().Int("jobs", len(jobs)).Int("workers", numWorkers).Msg("Scheduling downloads")

	var g errgroup.Group
	g.SetLimit(numWorkers)
	for i := range jobs {
		g.Go(func() error {
			job := &jobs[i]
			var sink output.LineSink
			if mgr != nil {
				sink = mgr.Sink(ids[i])
			} else {
				sink = output.NewTerminalSink(w)
			}
			result, err := dl.Download(ctx, job, sink)
			reports[i] = Report{Job: *job, Result: result, Err: err}
			if mgr != nil {
				finish(mgr, ids[i], result, err)
			} else if err != nil {
				fmt.Fprintln(w, output.FError(err.Error()))
			}
			if err != nil {
				log.Error().Err(err).Str("job", job.ID).Str("url", job.URL).Msg("Download failed")
			}
			return nil
		})
	}
	g.Wait()
	if mgr != nil {
		mgr.StopDisplay()
	}
	return reports
}

func finish(mgr *output.Manager, id int, result *futhttp.Result, err error) {
	switch {
	case err != nil:
		mgr.ReportError(id, err)
	case result.Partial():
		mgr.Warn(id, fmt.Sprintf("%s incomplete, %d of %d segments failed", result.Target.FileName, len(result.Failed), result.Segments))
	default:
		mgr.Complete(id, fmt.Sprintf("Completed %s (%s)", result.Target.FileName, output.FormatBytes(result.Written)))
	}
}
