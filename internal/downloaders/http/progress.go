package futhttp

import (
	"io"
	"sync"
	"time"

	"github.com/tanq16/futload/internal/output"
	"github.com/tanq16/futload/internal/utils"
)

const RenderInterval = 100 * time.Millisecond

// SegmentProgress is the state of one segment as seen by the aggregator.
type SegmentProgress struct {
	Transferred int64
	Span        int64
	Done        bool
	Err         error
}

// ProgressTable holds one entry per planned segment. Each entry has a single
// writer (its fetcher); every read and write goes through mu so the
// (transferred, span, done) triple is never observed half-updated.
type ProgressTable struct {
	mu        sync.Mutex
	segments  []Segment
	entries   []SegmentProgress
	remaining int
	done      chan struct{}
}

func NewProgressTable(segments []Segment) *ProgressTable {
	pt := &ProgressTable{
		segments:  segments,
		entries:   make([]SegmentProgress, len(segments)),
		remaining: len(segments),
		done:      make(chan struct{}),
	}
	for i, seg := range segments {
		pt.entries[i].Span = seg.Len()
	}
	if pt.remaining == 0 {
		close(pt.done)
	}
	return pt
}

// Write persists p at off and credits the bytes to segment idx in one critical
// section, so a snapshot never counts bytes that are not on disk yet.
func (pt *ProgressTable) Write(idx int, w io.WriterAt, off int64, p []byte) (int, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	n, err := w.WriteAt(p, off)
	pt.entries[idx].Transferred += int64(n)
	return n, err
}

// MarkDone finishes segment idx. A non-nil err flags the segment as failed.
// Only the first call for an index has any effect.
func (pt *ProgressTable) MarkDone(idx int, err error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	entry := &pt.entries[idx]
	if entry.Done {
		return
	}
	entry.Done = true
	entry.Err = err
	pt.remaining--
	if pt.remaining == 0 {
		close(pt.done)
	}
}

// Done is closed once every segment has been marked done.
func (pt *ProgressTable) Done() <-chan struct{} {
	return pt.done
}

// Snapshot sums the table under the lock.
func (pt *ProgressTable) Snapshot() (transferred int64, finished int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	for _, entry := range pt.entries {
		transferred += entry.Transferred
		if entry.Done {
			finished++
		}
	}
	return transferred, finished
}

func (pt *ProgressTable) Entry(idx int) SegmentProgress {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.entries[idx]
}

func (pt *ProgressTable) Failures() []*utils.SegmentError {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	var failed []*utils.SegmentError
	for i, entry := range pt.entries {
		if entry.Err == nil {
			continue
		}
		seg := pt.segments[i]
		failed = append(failed, &utils.SegmentError{
			Index: seg.Index,
			Start: seg.Start,
			End:   seg.End,
			Err:   entry.Err,
		})
	}
	return failed
}

// Aggregator renders the summed progress of a table until every segment is done.
type Aggregator struct {
	Table    *ProgressTable
	Total    int64
	BarSize  int
	Sink     output.LineSink
	Interval time.Duration
}

func (a *Aggregator) Run() {
	interval := a.Interval
	if interval <= 0 {
		interval = RenderInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.render()
		case <-a.Table.Done():
			a.render()
			return
		}
	}
}

func (a *Aggregator) render() {
	transferred, _ := a.Table.Snapshot()
	a.Sink.Update(output.ProgressLine(transferred, a.Total, a.BarSize, "T"))
}
