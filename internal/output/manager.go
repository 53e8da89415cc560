package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type FunctionOutput struct {
	ID          int
	Name        string
	Status      string
	Message     string
	Progress    string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

type ErrorReport struct {
	FunctionName string
	Error        error
	Time         time.Time
}

// Manager redraws one block per registered download so several downloads can
// report at once without their progress lines overwriting each other.
type Manager struct {
	w             io.Writer
	outputs       map[int]*FunctionOutput
	mutex         sync.RWMutex
	numLines      int
	errors        []ErrorReport
	doneCh        chan struct{}
	displayTick   time.Duration
	functionCount int
	displayWg     sync.WaitGroup
}

func NewManager(w io.Writer) *Manager {
	return &Manager{
		w:           w,
		outputs:     make(map[int]*FunctionOutput),
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) RegisterFunction(name string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.functionCount++
	m.outputs[m.functionCount] = &FunctionOutput{
		ID:          m.functionCount,
		Name:        name,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	}
	return m.functionCount
}

func (m *Manager) update(id int, fn func(info *FunctionOutput)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		fn(info)
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) SetMessage(id int, message string) {
	m.update(id, func(info *FunctionOutput) {
		info.Message = message
		if info.Status == "pending" {
			info.Status = "active"
		}
	})
}

func (m *Manager) SetProgress(id int, line string) {
	m.update(id, func(info *FunctionOutput) {
		info.Progress = line
		if info.Status == "pending" {
			info.Status = "active"
		}
	})
}

func (m *Manager) Complete(id int, message string) {
	m.update(id, func(info *FunctionOutput) {
		info.Progress = ""
		info.Message = message
		if message == "" {
			info.Message = fmt.Sprintf("Completed %s", info.Name)
		}
		info.Complete = true
		info.Status = "success"
	})
}

// Warn completes a function that finished with a non-fatal problem.
func (m *Manager) Warn(id int, message string) {
	m.update(id, func(info *FunctionOutput) {
		info.Progress = ""
		info.Message = message
		info.Complete = true
		info.Status = "warning"
	})
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Progress = ""
		info.Message = fmt.Sprintf("Failed %s", info.Name)
		info.Complete = true
		info.Status = "error"
		info.Error = err
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{
			FunctionName: info.Name,
			Error:        err,
			Time:         time.Now(),
		})
	}
}

// Sink adapts one registered function to the LineSink a downloader writes to.
func (m *Manager) Sink(id int) LineSink {
	return &managerSink{m: m, id: id}
}

type managerSink struct {
	m  *Manager
	id int
}

func (s *managerSink) Message(text string) { s.m.SetMessage(s.id, text) }
func (s *managerSink) Update(line string)  { s.m.SetProgress(s.id, line) }
func (s *managerSink) Finish()             {}

func (m *Manager) statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "warning":
		return warningStyle.Render(StyleSymbols["warning"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func styleMessage(status, message string) string {
	switch status {
	case "success":
		return successStyle.Render(message)
	case "error":
		return errorStyle.Render(message)
	case "warning":
		return warningStyle.Render(message)
	default:
		return pendingStyle.Render(message)
	}
}

func (m *Manager) sortedFunctions() []*FunctionOutput {
	funcs := make([]*FunctionOutput, 0, len(m.outputs))
	for _, info := range m.outputs {
		funcs = append(funcs, info)
	}
	sort.Slice(funcs, func(i, j int) bool {
		return funcs[i].ID < funcs[j].ID
	})
	return funcs
}

// updateDisplay redraws every block and records how many lines the next
// redraw clears.
func (m *Manager) updateDisplay() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	availableLines := getTerminalHeight() - 3
	if m.numLines > 0 {
		fmt.Fprintf(m.w, "\033[%dA\033[J", m.numLines)
	}
	lineCount := 0
	for _, info := range m.sortedFunctions() {
		if lineCount >= availableLines {
			break
		}
		elapsed := time.Since(info.StartTime).Round(time.Second)
		if info.Complete {
			elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
		}
		message := info.Message
		if message == "" {
			message = "Waiting..."
		}
		fmt.Fprintf(m.w, "%s%s %s %s\n", strings.Repeat(" ", 2), m.statusIndicator(info.Status), debugStyle.Render(elapsed.String()), styleMessage(info.Status, message))
		lineCount++
		if info.Progress != "" && lineCount < availableLines {
			fmt.Fprintf(m.w, "%s%s\n", strings.Repeat(" ", 2+4), streamStyle.Render(info.Progress))
			lineCount++
		}
	}
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				m.ShowSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Fprintln(m.w)
	var success, warnings, failures int
	for _, info := range m.outputs {
		switch info.Status {
		case "success":
			success++
		case "warning":
			warnings++
		case "error":
			failures++
		}
	}
	fmt.Fprintln(m.w, strings.Repeat(" ", 2)+successStyle.Render(fmt.Sprintf("Completed %d of %d", success, len(m.outputs))))
	if warnings > 0 {
		fmt.Fprintln(m.w, strings.Repeat(" ", 2)+warningStyle.Render(fmt.Sprintf("Incomplete %d of %d", warnings, len(m.outputs))))
	}
	if failures > 0 {
		fmt.Fprintln(m.w, strings.Repeat(" ", 2)+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.outputs))))
	}
	if len(m.errors) > 0 {
		fmt.Fprintln(m.w)
		fmt.Fprintln(m.w, strings.Repeat(" ", 2)+errorStyle.Bold(true).Render("Errors:"))
		for i, err := range m.errors {
			fmt.Fprintf(m.w, "%s%s %s %s\n",
				strings.Repeat(" ", 2+2),
				errorStyle.Render(fmt.Sprintf("%d.", i+1)),
				debugStyle.Render(fmt.Sprintf("[%s]", err.Time.Format("15:04:05"))),
				errorStyle.Render(fmt.Sprintf("%s: %v", err.FunctionName, err.Error)))
		}
	}
	fmt.Fprintln(m.w)
}
