package ffmpeg

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

var progressTime = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// progressWriter consumes ffmpeg's stderr. It logs progress against the
// expected output duration and keeps the last line for error reporting.
type progressWriter struct {
	mu       sync.Mutex
	duration float64
	log      logrus.FieldLogger
	pending  []byte
	last     string
	percent  int
}

func newProgressWriter(duration float64, log logrus.FieldLogger) *progressWriter {
	return &progressWriter{duration: duration, log: log, percent: -1}
}

func (w *progressWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, b...)
	for {
		i := bytes.IndexAny(w.pending, "\r\n")
		if i < 0 {
			break
		}
		w.line(string(w.pending[:i]))
		w.pending = w.pending[i+1:]
	}
	return len(b), nil
}

func (w *progressWriter) line(s string) {
	if s == "" {
		return
	}
	w.last = s

	if w.duration <= 0 {
		return
	}
	elapsed, ok := parseProgressTime(s)
	if !ok {
		return
	}
	pct := int(math.Min(100, math.Round(elapsed/w.duration*100)))
	if pct > w.percent {
		w.percent = pct
		w.log.Debugf("Progress: %d%%", pct)
	}
}

// LastLine returns the last complete or partial line written.
func (w *progressWriter) LastLine() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) > 0 {
		return string(w.pending)
	}
	return w.last
}

// Percent returns the last reported progress, or -1 before any.
func (w *progressWriter) Percent() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.percent
}

func parseProgressTime(s string) (float64, bool) {
	m := progressTime.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	sec, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(h*3600+mins*60) + sec, true
}
