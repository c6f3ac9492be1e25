// Package episode decodes GUI-Odyssey episode annotation files and normalizes
// them into per-step annotation records.
package episode

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is one recorded task-completion trace.
type Document struct {
	EpisodeID  string     `json:"episode_id"`
	DeviceInfo DeviceInfo `json:"device_info"`
	TaskInfo   TaskInfo   `json:"task_info"`
	Steps      []Step     `json:"steps"`
}

// DeviceInfo carries the recording device's display name.
type DeviceInfo struct {
	DeviceName string `json:"device_name"`
}

// TaskInfo describes the task the episode completes.
type TaskInfo struct {
	Category    string   `json:"category"`
	MetaTask    string   `json:"meta_task"`
	Task        string   `json:"task"`
	Instruction string   `json:"instruction"`
	Apps        []string `json:"app"`
}

// Step is one screenshot paired with one user action. Info is kept raw; its
// shape depends on Action and is resolved once per step during normalization.
type Step struct {
	Step       int             `json:"step"`
	Screenshot string          `json:"screenshot"`
	Action     string          `json:"action"`
	Info       json.RawMessage `json:"info,omitempty"`
}

// Decode reads one episode document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode episode: %w", err)
	}
	if doc.EpisodeID == "" {
		return nil, fmt.Errorf("decode episode: missing episode_id")
	}
	return &doc, nil
}

// Load reads one episode document from a file.
func Load(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file)
}
