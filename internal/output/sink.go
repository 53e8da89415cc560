package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// LineSink receives the status output of one download: whole lines through
// Message and a repeatedly overwritten progress line through Update.
type LineSink interface {
	Message(text string)
	Update(line string)
	Finish()
}

type NopSink struct{}

func (NopSink) Message(string) {}
func (NopSink) Update(string)  {}
func (NopSink) Finish()        {}

// TerminalSink redraws the progress line in place with a carriage return.
type TerminalSink struct {
	mu      sync.Mutex
	w       io.Writer
	lastLen int
	open    bool
}

func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{w: w}
}

func (s *TerminalSink) Message(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLine()
	fmt.Fprintln(s.w, text)
}

func (s *TerminalSink) Update(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pad := ""
	if s.lastLen > len(line) {
		pad = strings.Repeat(" ", s.lastLen-len(line))
	}
	fmt.Fprintf(s.w, "\r%s%s", line, pad)
	s.lastLen = len(line)
	s.open = true
}

func (s *TerminalSink) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLine()
}

func (s *TerminalSink) closeLine() {
	if s.open {
		fmt.Fprintln(s.w)
		s.open = false
		s.lastLen = 0
	}
}
