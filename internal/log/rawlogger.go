package log

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// RawLogger records raw API traffic.
type RawLogger interface {
	// Log records one chunk; in=true is a request, in=false a response.
	Log(in bool, data []byte)
}

type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a new RawLogger. If writer is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// printable renders data with control bytes shown as '.'.
func printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c < 0x20 || c > 0x7e {
			b.WriteByte('.')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (r *rawLogger) Log(in bool, data []byte) {
	if r.w == nil || len(data) == 0 {
		return
	}
	dir := "RES"
	if in {
		dir = "REQ"
	}
	line := fmt.Sprintf("%s %s %d bytes %q hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05.000"),
		dir,
		len(data),
		printable(data),
		hex.EncodeToString(data))

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, line)
}
