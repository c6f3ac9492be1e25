// Package diag writes append-only JSONL diagnostics for ingest runs.
package diag

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventVersion is the current diagnostics schema version.
const EventVersion = 1

// Event captures one ingest diagnostic record.
type Event struct {
	Version     int    `json:"v"`
	TimestampMs int64  `json:"ts_ms"`
	EventID     string `json:"event_id"`
	Type        string `json:"type"`
	EpisodeID   string `json:"episode_id,omitempty"`
	Split       string `json:"split,omitempty"`
	Step        int    `json:"step,omitempty"`
	Action      string `json:"action,omitempty"`
	Path        string `json:"path,omitempty"`
	Error       string `json:"error,omitempty"`
	Count       int    `json:"count,omitempty"`
}

// WithSplit sets the split name.
func (e Event) WithSplit(split string) Event {
	e.Split = split
	return e
}

// WithStep sets the 1-based step index.
func (e Event) WithStep(step int) Event {
	e.Step = step
	return e
}

// WithAction sets the raw action token.
func (e Event) WithAction(action string) Event {
	e.Action = action
	return e
}

// WithPath sets the file path the event concerns.
func (e Event) WithPath(path string) Event {
	e.Path = path
	return e
}

// WithError sets the error field.
func (e Event) WithError(err string) Event {
	e.Error = err
	return e
}

// WithCount sets the count field for batch events.
func (e Event) WithCount(count int) Event {
	e.Count = count
	return e
}

// Event type constants.
const (
	EventTypeMissingScreenshot = "missing_screenshot"
	EventTypeUnknownAction     = "unknown_action"
	EventTypeEpisodeFailed     = "episode_failed"
	EventTypeEpisodeDone       = "episode_done"
	EventTypeSplitFailed       = "split_failed"
	EventTypeSplitDone         = "split_done"
	EventTypeWatchStarted      = "watch_started"
)

// GenerateEventID returns an evt- prefixed 8-hex identifier.
func GenerateEventID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		n := time.Now().UnixNano()
		buf[0] = byte(n)
		buf[1] = byte(n >> 8)
		buf[2] = byte(n >> 16)
		buf[3] = byte(n >> 24)
	}
	return "evt-" + hex.EncodeToString(buf)
}

// NewEvent creates an event with schema defaults filled.
func NewEvent(eventType, episodeID string) Event {
	return Event{
		Version:     EventVersion,
		TimestampMs: time.Now().UnixMilli(),
		EventID:     GenerateEventID(),
		Type:        eventType,
		EpisodeID:   episodeID,
	}
}

// EventLog writes append-only JSONL logs.
type EventLog struct {
	path string
	mu   sync.Mutex
}

func NewEventLog(logDir string) *EventLog {
	return &EventLog{path: filepath.Join(logDir, "events.jsonl")}
}

func (l *EventLog) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Version == 0 {
		event.Version = EventVersion
	}
	if event.TimestampMs == 0 {
		event.TimestampMs = time.Now().UnixMilli()
	}
	if event.EventID == "" {
		event.EventID = GenerateEventID()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := file.Write(append(payload, '\n')); err != nil {
		return err
	}

	return nil
}
