// Package annotation defines the normalized per-step record emitted for every
// retained step of a GUI interaction episode.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sample field names the action payload is written under, matching the
// source dataset's sample schema.
const (
	FieldPoints = "action_points" // tap / long-press keypoint
	FieldPress  = "action_press"  // system key or navigation press
	FieldScroll = "action_scroll" // scroll path
	FieldType   = "action_type"   // typed text
	FieldEnd    = "action_end"    // episode-terminal state
)

// StepSnapshot is one raw {step, action, info} triple, kept byte-for-byte as
// it appeared in the episode file.
type StepSnapshot struct {
	Step   int             `json:"step"`
	Action string          `json:"action"`
	Info   json.RawMessage `json:"info,omitempty"`
}

// Point is a screen coordinate normalized to [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Keypoint is a single labeled point, e.g. a CLICK location.
type Keypoint struct {
	Label string `json:"label"`
	Point Point  `json:"point"`
}

// ScrollPath is a labeled two-point gesture path.
type ScrollPath struct {
	Label string `json:"label"`
	Start Point  `json:"start"`
	End   Point  `json:"end"`
}

// Classification is a bare label payload.
type Classification struct {
	Label string `json:"label"`
}

// Payload is the action-specific portion of an annotation. Field names the
// sample field the payload belongs under; exactly one of the value members is
// set. The sink renders the value under the named field, which is why Payload
// itself is excluded from plain JSON marshaling of the Annotation.
type Payload struct {
	Field          string
	Keypoint       *Keypoint
	Scroll         *ScrollPath
	Classification *Classification
}

// Value returns whichever payload member is set.
func (p *Payload) Value() any {
	switch {
	case p == nil:
		return nil
	case p.Keypoint != nil:
		return p.Keypoint
	case p.Scroll != nil:
		return p.Scroll
	case p.Classification != nil:
		return p.Classification
	}
	return nil
}

// Annotation is the normalized record for one retained episode step.
type Annotation struct {
	EpisodeID   string   `json:"episode_id"`
	DeviceName  string   `json:"device_name"`
	Step        int      `json:"step"`
	Category    string   `json:"category"`
	MetaTask    string   `json:"meta_task"`
	Task        string   `json:"task"`
	Instruction string   `json:"instruction"`
	AppsUsed    []string `json:"apps_used"`
	Screenshot  string   `json:"screenshot"`

	// History holds the raw step triples of every retained step up to and
	// including this one. Each annotation owns its copy; later steps never
	// mutate it.
	History []StepSnapshot `json:"structured_history"`

	// Payload is nil for unrecognized action tokens.
	Payload *Payload `json:"-"`
}

// Validate checks required fields for basic record integrity.
func (a *Annotation) Validate() error {
	if a == nil {
		return errors.New("annotation: nil")
	}
	if a.EpisodeID == "" {
		return errors.New("annotation: missing episode_id")
	}
	if a.Step <= 0 {
		return fmt.Errorf("annotation: invalid step %d", a.Step)
	}
	if len(a.History) == 0 {
		return errors.New("annotation: empty history")
	}
	if a.Payload != nil {
		if a.Payload.Field == "" {
			return errors.New("annotation: payload missing field name")
		}
		set := 0
		if a.Payload.Keypoint != nil {
			set++
		}
		if a.Payload.Scroll != nil {
			set++
		}
		if a.Payload.Classification != nil {
			set++
		}
		if set != 1 {
			return fmt.Errorf("annotation: payload must carry exactly one value, has %d", set)
		}
	}
	return nil
}
