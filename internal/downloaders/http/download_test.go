package futhttp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/tanq16/futload/internal/utils"
)

func testJob(t *testing.T, url string) *utils.FutJob {
	t.Helper()
	return &utils.FutJob{
		ID:          "test",
		URL:         url,
		Destination: t.TempDir(),
		Threads:     4,
		ChunkSize:   utils.DefaultChunkSize,
		Threshold:   500000,
		BarSize:     10,
		Status:      true,
	}
}

func TestChooseStrategy(t *testing.T) {
	rangeable := &DownloadTarget{Size: 1000000, RangeSupported: true}
	tests := []struct {
		name   string
		target *DownloadTarget
		job    utils.FutJob
		want   Strategy
	}{
		{"segmented", rangeable, utils.FutJob{Threads: 4, Threshold: 500000}, StrategySegmented},
		{"threshold inclusive", rangeable, utils.FutJob{Threads: 4, Threshold: 1000000}, StrategySegmented},
		{"below threshold", rangeable, utils.FutJob{Threads: 4, Threshold: 1000001}, StrategyWholeFile},
		{"forced single", rangeable, utils.FutJob{Threads: 4, ForceSingle: true}, StrategyWholeFile},
		{"no threads", rangeable, utils.FutJob{Threads: 0}, StrategyWholeFile},
		{"no ranges", &DownloadTarget{Size: 1000000}, utils.FutJob{Threads: 4}, StrategyWholeFile},
		{"unknown size", &DownloadTarget{Size: -1, RangeSupported: true}, utils.FutJob{Threads: 4}, StrategyWholeFile},
		{"empty", &DownloadTarget{Size: 0, RangeSupported: true}, utils.FutJob{Threads: 4}, StrategyWholeFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := ChooseStrategy(tt.target, &tt.job)
			if got != tt.want {
				t.Errorf("ChooseStrategy() = %v (%s), want %v", got, reason, tt.want)
			}
		})
	}
}

func TestDownloadSegmented(t *testing.T) {
	data := testData(1000000)
	srv := newTestServer(t, data, serverOpts{acceptRanges: "bytes"})
	job := testJob(t, srv.URL+"/big.bin")
	sink := &recordingSink{}

	dl := &HTTPDownloader{RenderInterval: 5 * time.Millisecond}
	result, err := dl.Download(context.Background(), job, sink)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if result.Strategy != StrategySegmented || result.Segments != 4 {
		t.Errorf("strategy = %v, segments = %d", result.Strategy, result.Segments)
	}
	if result.Partial() || result.Written != int64(len(data)) {
		t.Errorf("written = %d, failed = %v", result.Written, result.Failed)
	}
	if got := srv.rangeRequests.Load(); got != 4 {
		t.Errorf("range requests = %d, want 4", got)
	}

	path := filepath.Join(job.Destination, "big.bin")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(len(data)) {
		t.Errorf("file size = %d, want %d", info.Size(), len(data))
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, data) {
		t.Error("file content differs from source")
	}

	last := sink.lastUpdate()
	if !strings.HasPrefix(last, "[##########]") || !strings.HasSuffix(last, "(100.00%) T") {
		t.Errorf("last update = %q", last)
	}
	if sink.finished != 1 {
		t.Errorf("Finish called %d times", sink.finished)
	}
}

func TestDownloadWholeFile(t *testing.T) {
	tests := []struct {
		name   string
		opts   serverOpts
		modify func(*utils.FutJob)
	}{
		{"ranges not accepted", serverOpts{acceptRanges: "none"}, nil},
		{"no accept-ranges header", serverOpts{}, nil},
		{"below threshold", serverOpts{acceptRanges: "bytes"}, func(j *utils.FutJob) { j.Threshold = 1 << 30 }},
		{"forced single", serverOpts{acceptRanges: "bytes"}, func(j *utils.FutJob) { j.ForceSingle = true }},
		{"threads zero", serverOpts{acceptRanges: "bytes"}, func(j *utils.FutJob) { j.Threads = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testData(600000)
			srv := newTestServer(t, data, tt.opts)
			job := testJob(t, srv.URL+"/file.dat")
			if tt.modify != nil {
				tt.modify(job)
			}
			sink := &recordingSink{}

			result, err := (&HTTPDownloader{}).Download(context.Background(), job, sink)
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}
			if result.Strategy != StrategyWholeFile {
				t.Errorf("strategy = %v", result.Strategy)
			}
			if got := srv.rangeRequests.Load(); got != 0 {
				t.Errorf("range requests = %d, want 0", got)
			}
			got, _ := os.ReadFile(filepath.Join(job.Destination, "file.dat"))
			if !bytes.Equal(got, data) {
				t.Errorf("file content differs (%d bytes)", len(got))
			}
			if last := sink.lastUpdate(); !strings.Contains(last, "(100.00%)") || strings.HasSuffix(last, " T") {
				t.Errorf("last update = %q", last)
			}
		})
	}
}

func TestDownloadUnknownSize(t *testing.T) {
	data := testData(20000)
	srv := newTestServer(t, data, serverOpts{acceptRanges: "bytes", omitLength: true})
	job := testJob(t, srv.URL+"/stream")
	sink := &recordingSink{}

	result, err := (&HTTPDownloader{}).Download(context.Background(), job, sink)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if result.Strategy != StrategyWholeFile || result.Written != int64(len(data)) {
		t.Errorf("strategy = %v, written = %d", result.Strategy, result.Written)
	}
	last := sink.lastUpdate()
	if !strings.Contains(last, "of ?") || !strings.Contains(last, "??.??") {
		t.Errorf("last update = %q", last)
	}
}

func TestDownloadPartialFailure(t *testing.T) {
	data := testData(1000000)
	srv := newTestServer(t, data, serverOpts{
		acceptRanges: "bytes",
		failRange:    func(start int64) bool { return start == 250000 },
	})
	job := testJob(t, srv.URL+"/big.bin")
	sink := &recordingSink{}

	result, err := (&HTTPDownloader{RenderInterval: 5 * time.Millisecond}).Download(context.Background(), job, sink)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0].Index != 1 {
		t.Fatalf("failed = %v", result.Failed)
	}
	if !errors.Is(result.Failed[0], utils.ErrUnexpectedStatus) {
		t.Errorf("segment error = %v", result.Failed[0])
	}
	if result.Written != 750000 {
		t.Errorf("written = %d, want 750000", result.Written)
	}
	found := false
	for _, msg := range sink.messages {
		if strings.Contains(msg, "1 of 4 segments failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("messages = %q", sink.messages)
	}
}

func TestDownloadMessages(t *testing.T) {
	data := testData(1000)
	srv := newTestServer(t, data, serverOpts{})

	t.Run("verbose", func(t *testing.T) {
		job := testJob(t, srv.URL+"/small.txt")
		job.Status, job.Verbose = false, true
		sink := &recordingSink{}
		if _, err := (&HTTPDownloader{}).Download(context.Background(), job, sink); err != nil {
			t.Fatal(err)
		}
		want := "Downloading small.txt (from " + job.URL + ")"
		if len(sink.messages) == 0 || sink.messages[0] != want {
			t.Errorf("messages = %q, want first %q", sink.messages, want)
		}
	})

	t.Run("quiet", func(t *testing.T) {
		job := testJob(t, srv.URL+"/small.txt")
		job.Status = false
		sink := &recordingSink{}
		if _, err := (&HTTPDownloader{}).Download(context.Background(), job, sink); err != nil {
			t.Fatal(err)
		}
		if len(sink.messages) != 0 || len(sink.updates) != 0 {
			t.Errorf("quiet job wrote output: %q %q", sink.messages, sink.updates)
		}
		if _, err := os.Stat(filepath.Join(job.Destination, "small.txt")); err != nil {
			t.Error(err)
		}
	})
}

func TestDownloadProbeFailure(t *testing.T) {
	srv := newTestServer(t, nil, serverOpts{})
	job := testJob(t, "ftp://"+strings.TrimPrefix(srv.URL, "http://")+"/x")

	result, err := (&HTTPDownloader{}).Download(context.Background(), job, &recordingSink{})
	if err == nil || result != nil {
		t.Fatalf("Download() = %v, %v; want probe error", result, err)
	}
	var probeErr *utils.ProbeError
	if !errors.As(err, &probeErr) {
		t.Errorf("error = %v, want *ProbeError", err)
	}
	entries, _ := os.ReadDir(job.Destination)
	if len(entries) != 0 {
		t.Errorf("destination has %d entries after failed probe", len(entries))
	}
}

func TestDownloadClampsWorkers(t *testing.T) {
	data := testData(5)
	srv := newTestServer(t, data, serverOpts{acceptRanges: "bytes"})
	job := testJob(t, srv.URL+"/tiny.bin")
	job.Threads = 16
	job.Threshold = 0

	result, err := (&HTTPDownloader{RenderInterval: 5 * time.Millisecond}).Download(context.Background(), job, &recordingSink{})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if result.Strategy != StrategySegmented || result.Segments != 5 {
		t.Errorf("strategy = %v, segments = %d, want segmented with 5", result.Strategy, result.Segments)
	}
	if result.Written != 5 || result.Partial() {
		t.Errorf("written = %d, failed = %v", result.Written, result.Failed)
	}
	if got := srv.rangeRequests.Load(); got != 5 {
		t.Errorf("range requests = %d, want 5", got)
	}
	got, _ := os.ReadFile(filepath.Join(job.Destination, "tiny.bin"))
	if !bytes.Equal(got, data) {
		t.Errorf("file content = %v, want %v", got, data)
	}
}

func TestDownloadCancelled(t *testing.T) {
	data := testData(1000000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "" {
			w.WriteHeader(http.StatusPartialContent)
			w.(http.Flusher).Flush()
			<-r.Context().Done()
			return
		}
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}))
	defer srv.Close()
	job := testJob(t, srv.URL+"/stalled.bin")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	var (
		result *Result
		err    error
	)
	go func() {
		defer close(done)
		result, err = (&HTTPDownloader{RenderInterval: 5 * time.Millisecond}).Download(ctx, job, &recordingSink{})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Download() did not return after the context expired")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Download() error = %v, want context.DeadlineExceeded", err)
	}
	if result == nil || result.Strategy != StrategySegmented {
		t.Fatalf("result = %+v, want segmented result", result)
	}
	if len(result.Failed) != result.Segments || result.Segments != 4 {
		t.Errorf("failed %d of %d segments, want all 4", len(result.Failed), result.Segments)
	}
}
