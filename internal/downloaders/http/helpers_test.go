package futhttp

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type serverOpts struct {
	acceptRanges string
	omitLength   bool
	disposition  string
	// failRange makes ranged requests starting at the given offset answer 500
	failRange func(start int64) bool
}

type testServer struct {
	*httptest.Server
	data          []byte
	rangeRequests atomic.Int32
	plainRequests atomic.Int32
}

func testData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func newTestServer(t *testing.T, data []byte, opts serverOpts) *testServer {
	t.Helper()
	ts := &testServer{data: data}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := r.Header.Get("Range")
		if rangeHeader != "" && opts.acceptRanges == "bytes" {
			ts.rangeRequests.Add(1)
			start, end, ok := parseRange(rangeHeader, int64(len(data)))
			if !ok {
				w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
				return
			}
			if opts.failRange != nil && opts.failRange(start) {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
			w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
			w.WriteHeader(http.StatusPartialContent)
			w.Write(data[start : end+1])
			return
		}
		ts.plainRequests.Add(1)
		if opts.acceptRanges != "" {
			w.Header().Set("Accept-Ranges", opts.acceptRanges)
		}
		if opts.disposition != "" {
			w.Header().Set("Content-Disposition", opts.disposition)
		}
		if opts.omitLength {
			flusher := w.(http.Flusher)
			for off := 0; off < len(data); off += 4096 {
				w.Write(data[off:min(off+4096, len(data))])
				flusher.Flush()
			}
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func parseRange(header string, size int64) (int64, int64, bool) {
	byteRange, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, false
	}
	startStr, endStr, ok := strings.Cut(byteRange, "-")
	if !ok {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if end >= size {
		end = size - 1
	}
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}

type recordingSink struct {
	mu       sync.Mutex
	messages []string
	updates  []string
	finished int
}

func (s *recordingSink) Message(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
}

func (s *recordingSink) Update(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, line)
}

func (s *recordingSink) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished++
}

func (s *recordingSink) lastUpdate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updates) == 0 {
		return ""
	}
	return s.updates[len(s.updates)-1]
}
