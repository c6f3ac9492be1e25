// Package sink persists normalized annotations as per-split JSONL sample
// files.
package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/sjson"

	"github.com/norm/odyssey-ingest/pkg/annotation"
)

// Writer appends annotation samples to one split's JSONL file.
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter returns a writer for <outDir>/<split>.jsonl.
func NewWriter(outDir, split string) *Writer {
	return &Writer{path: filepath.Join(outDir, split+".jsonl")}
}

// Path returns the sample file location.
func (w *Writer) Path() string {
	return w.path
}

// Write renders one annotation and appends it as a JSONL line.
func (w *Writer) Write(ann *annotation.Annotation) error {
	if err := ann.Validate(); err != nil {
		return err
	}
	sample, err := Render(ann)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(append(sample, '\n')); err != nil {
		return err
	}
	return nil
}

// Render produces the sample JSON object for one annotation. The
// action-specific payload lands under the field named by the payload
// (action_points, action_press, action_scroll, action_type, action_end),
// so each sample carries at most one action field, keyed by its kind.
func Render(ann *annotation.Annotation) ([]byte, error) {
	base, err := json.Marshal(ann)
	if err != nil {
		return nil, err
	}
	if ann.Payload == nil {
		return base, nil
	}
	return sjson.SetBytes(base, ann.Payload.Field, ann.Payload.Value())
}
