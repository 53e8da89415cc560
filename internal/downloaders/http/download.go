package futhttp

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tanq16/futload/internal/output"
	"github.com/tanq16/futload/internal/utils"
)

type Strategy int

const (
	StrategyWholeFile Strategy = iota
	StrategySegmented
)

func (s Strategy) String() string {
	if s == StrategySegmented {
		return "segmented"
	}
	return "whole-file"
}

// Result summarises one finished download. Failed lists segments that were
// marked done with an error; their byte ranges are incomplete on disk.
type Result struct {
	Target   *DownloadTarget
	Strategy Strategy
	Segments int
	Written  int64
	Elapsed  time.Duration
	Failed   []*utils.SegmentError
}

func (r *Result) Partial() bool {
	return len(r.Failed) > 0
}

// ChooseStrategy picks the whole-file path unless the target can be split and
// the job asked for it. The returned reason is for logs.
func ChooseStrategy(target *DownloadTarget, job *utils.FutJob) (Strategy, string) {
	switch {
	case job.ForceSingle:
		return StrategyWholeFile, "single stream forced"
	case job.Threads == 0:
		return StrategyWholeFile, "no threads requested"
	case !target.RangeSupported:
		return StrategyWholeFile, "server does not accept byte ranges"
	case !target.SizeKnown():
		return StrategyWholeFile, "size unknown"
	case target.Size == 0:
		return StrategyWholeFile, "empty resource"
	case target.Size < job.Threshold:
		return StrategyWholeFile, "size below threshold"
	}
	return StrategySegmented, "range requests supported"
}

type HTTPDownloader struct {
	// RenderInterval overrides the aggregator tick; zero uses the default.
	RenderInterval time.Duration
}

// Download runs one job to completion: probe, pick a strategy, fetch, summarise.
// Probe failures, whole-file I/O failures and cancellation are returned as
// errors; other failed segments are reported through Result.Failed.
func (d *HTTPDownloader) Download(ctx context.Context, job *utils.FutJob, sink output.LineSink) (*Result, error) {
	log := utils.GetLogger("http").With().Str("job", job.ID).Logger()
	if !job.Reporting() || sink == nil {
		sink = output.NopSink{}
	}
	if job.ChunkSize < 1 {
		job.ChunkSize = utils.DefaultChunkSize
	}
	job.HTTPClientConfig.HighThreadMode = job.Threads > 5
	client := utils.NewFutHTTPClient(job.HTTPClientConfig)
	startTime := time.Now()

	log.Debug().Str("state", "idle").Str("url", job.URL).Msg("Probing")
	target, body, err := Probe(ctx, client, job.URL, job.Destination)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("state", "probed").Int64("size", target.Size).Bool("ranges", target.RangeSupported).Str("file", target.FileName).Msg("Probe complete")

	if job.Reporting() {
		header := "Downloading " + target.FileName
		if job.Verbose {
			header += " (from " + job.URL + ")"
		}
		sink.Message(header)
	}

	strategy, reason := ChooseStrategy(target, job)
	log.Debug().Str("state", strategy.String()).Str("reason", reason).Msg("Strategy chosen")
	result := &Result{Target: target, Strategy: strategy, Segments: 1}

	switch strategy {
	case StrategySegmented:
		body.Close()
		err = d.downloadSegmented(ctx, client, target, job, sink, result)
	default:
		result.Written, err = downloadWhole(ctx, body, target.OutputPath(), target.Size, job.ChunkSize, job.BarSize, sink)
		body.Close()
	}
	result.Elapsed = time.Since(startTime)
	sink.Finish()
	if err != nil {
		return result, fmt.Errorf("error downloading %s: %w", job.URL, err)
	}

	log.Debug().Str("state", "complete").Int64("written", result.Written).Int("failedSegments", len(result.Failed)).Dur("elapsed", result.Elapsed).Msg("Download finished")
	if job.Reporting() {
		sink.Message("Downloaded " + output.FormatBytes(result.Written))
		if result.Partial() {
			sink.Message(fmt.Sprintf("%d of %d segments failed, %s is incomplete", len(result.Failed), result.Segments, target.FileName))
		}
	}
	return result, nil
}

func (d *HTTPDownloader) downloadSegmented(ctx context.Context, client utils.HTTPDoer, target *DownloadTarget, job *utils.FutJob, sink output.LineSink, result *Result) error {
	outputPath := target.OutputPath()
	if err := preallocate(outputPath, target.Size); err != nil {
		return err
	}
	workers := job.Threads
	if int64(workers) > target.Size {
		workers = int(target.Size)
	}
	segments, err := PlanSegments(target.Size, workers, outputPath)
	if err != nil {
		return err
	}
	result.Segments = len(segments)

	table := NewProgressTable(segments)
	var aggregatorDone chan struct{}
	if job.Reporting() {
		aggregatorDone = make(chan struct{})
		agg := &Aggregator{
			Table:    table,
			Total:    target.Size,
			BarSize:  job.BarSize,
			Sink:     sink,
			Interval: d.RenderInterval,
		}
		go func() {
			defer close(aggregatorDone)
			agg.Run()
		}()
	}

	var wg sync.WaitGroup
	for _, seg := range segments {
		wg.Add(1)
		go func(seg Segment) {
			defer wg.Done()
			fetchSegment(ctx, client, target.URL, seg, table, job.ChunkSize)
		}(seg)
	}
	wg.Wait()
	if aggregatorDone != nil {
		<-aggregatorDone
	}

	result.Written, _ = table.Snapshot()
	result.Failed = table.Failures()
	// cancellation fails the whole download, not just its segments
	return ctx.Err()
}

// preallocate creates path at its final size so every fetcher can write at its
// own offset.
func preallocate(path string, size int64) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	if err := file.Truncate(size); err != nil {
		file.Close()
		return fmt.Errorf("error sizing output file: %w", err)
	}
	return file.Close()
}
