// Package testlog provides a log handler for unit tests.
package testlog

import (
	"bytes"
	"log/slog"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

var useColorInTestLog = true

func init() {
	if os.Getenv("OP_TESTLOG_DISABLE_COLOR") == "true" {
		useColorInTestLog = false
	}
}

// Testing interface to log to.
// Standard Go testing.TB implements this, as well as Hive and other Go-like test frameworks.
type Testing interface {
	Logf(format string, args ...any)
	Helper()
	Name() string
	Cleanup(func())
}

// Logger returns a logger which logs to the unit test log of t.
func Logger(t Testing, level slog.Level) log.Logger {
	w := &lineWriter{t: t}
	t.Cleanup(w.flush)
	return log.NewLogger(log.NewTerminalHandlerWithLevel(w, level, useColorInTestLog))
}

// lineWriter forwards every complete line to t.Logf.
// Trailing partial output is flushed when the test completes.
type lineWriter struct {
	t   Testing
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf.Next(idx + 1))
		w.t.Logf("%s", line[:len(line)-1])
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.t.Logf("%s", w.buf.String())
		w.buf.Reset()
	}
}
