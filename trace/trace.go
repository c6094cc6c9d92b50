// Package trace provides the append-only observability log of every LLM
// request/response pair. The sink is injected; implementations may buffer
// but must not drop entries on normal exit.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"clauseguard-backend/models"

	"github.com/sirupsen/logrus"
)

// Recorder receives one entry per LLM call. Recording must never fail the
// analysis that produced the entry.
type Recorder interface {
	Record(entry models.TraceEntry)
}

const traceFileName = "clause_traces.jsonl"

// FileRecorder appends JSONL entries to a single trace file. Appends are
// mutex-guarded and synced per entry so concurrent sessions interleave whole
// lines and a crash loses at most the entry being written.
type FileRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileRecorder opens (creating if needed) the trace file under dir.
func NewFileRecorder(dir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}
	path := filepath.Join(dir, traceFileName)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &FileRecorder{file: file, enc: json.NewEncoder(file)}, nil
}

// Record appends one entry. Failures are logged, never propagated.
func (r *FileRecorder) Record(entry models.TraceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enc.Encode(entry); err != nil {
		logrus.WithError(err).Warn("failed to append trace entry")
		return
	}
	if err := r.file.Sync(); err != nil {
		logrus.WithError(err).Warn("failed to sync trace file")
	}
}

// Close flushes and closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// NopRecorder discards entries. Used when tracing is disabled.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(models.TraceEntry) {}
