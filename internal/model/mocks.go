package model

import (
	"fmt"
	"sync"
)

// TestLogger collects log lines for inspection by tests. It is safe
// for concurrent use, since the sampling workers log from their own
// goroutines.
type TestLogger struct {
	mu    sync.Mutex
	lines []string
}

// NewTestLogger creates a new [TestLogger].
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

// Lines returns a copy of the lines collected so far.
func (tl *TestLogger) Lines() []string {
	defer tl.mu.Unlock()
	tl.mu.Lock()
	return append([]string{}, tl.lines...)
}

func (tl *TestLogger) append(msg string) {
	defer tl.mu.Unlock()
	tl.mu.Lock()
	tl.lines = append(tl.lines, msg)
}

func (tl *TestLogger) Debug(msg string) {
	tl.append(msg)
}

func (tl *TestLogger) Debugf(format string, v ...any) {
	tl.append(fmt.Sprintf(format, v...))
}

func (tl *TestLogger) Info(msg string) {
	tl.append(msg)
}

func (tl *TestLogger) Infof(format string, v ...any) {
	tl.append(fmt.Sprintf(format, v...))
}

func (tl *TestLogger) Warn(msg string) {
	tl.append(msg)
}

func (tl *TestLogger) Warnf(format string, v ...any) {
	tl.append(fmt.Sprintf(format, v...))
}

func (tl *TestLogger) Error(msg string) {
	tl.append(msg)
}

func (tl *TestLogger) Errorf(format string, v ...any) {
	tl.append(fmt.Sprintf(format, v...))
}
