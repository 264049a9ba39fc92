package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TraceLogger records raw key edges and the outputs they produced, one
// line each, for debugging remapping behavior. It is always called
// outside the engine's critical section, never on the hook's latency
// budget.
type TraceLogger interface {
	Edge(device string, code uint16, extended bool, press bool, timestampUS uint64)
	Outputs(n int, summary string)
}

type traceLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewTrace creates a TraceLogger. A nil writer yields a no-op logger.
func NewTrace(w io.Writer) TraceLogger {
	return &traceLogger{w: w}
}

func (t *traceLogger) Edge(device string, code uint16, extended bool, press bool, timestampUS uint64) {
	if t.w == nil {
		return
	}
	dir := "up"
	if press {
		dir = "down"
	}
	ext := ""
	if extended {
		ext = " ext"
	}
	line := fmt.Sprintf("%s %-4s dev=%s scan=0x%04X%s t=%dus\n",
		time.Now().Format("2006/01/02 15:04:05"), dir, device, code, ext, timestampUS)

	t.mu.Lock()
	_, _ = io.WriteString(t.w, line)
	t.mu.Unlock()
}

func (t *traceLogger) Outputs(n int, summary string) {
	if t.w == nil || n == 0 {
		return
	}
	line := fmt.Sprintf("%s  -> %d output(s): %s\n",
		time.Now().Format("2006/01/02 15:04:05"), n, summary)

	t.mu.Lock()
	_, _ = io.WriteString(t.w, line)
	t.mu.Unlock()
}
