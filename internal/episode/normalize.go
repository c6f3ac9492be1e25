package episode

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/norm/odyssey-ingest/internal/diag"
	"github.com/norm/odyssey-ingest/pkg/annotation"
)

// MalformedStepError reports a step whose info payload does not match the
// shape its action requires. It aborts the enclosing episode.
type MalformedStepError struct {
	EpisodeID string
	Step      int
	Action    string
	Reason    string
}

func (e *MalformedStepError) Error() string {
	return fmt.Sprintf("episode %s step %d: malformed %s payload: %s", e.EpisodeID, e.Step, e.Action, e.Reason)
}

// Normalizer converts one episode document into an ordered sequence of
// per-step annotations. It holds no state across episodes; call Normalize
// from as many goroutines as you like, one document each.
type Normalizer struct {
	// ScreenshotPath resolves a step's screenshot filename to a full path.
	// Nil means the filename is used as-is.
	ScreenshotPath func(name string) string

	// ScreenshotExists is the storage layer's existence predicate. Nil means
	// every screenshot is assumed present.
	ScreenshotExists func(path string) bool

	// Events receives per-step diagnostics. Optional.
	Events *diag.EventLog
}

// Normalize produces one annotation per step whose screenshot is present, in
// step order. A malformed step aborts the episode: the error identifies the
// step and no annotations are returned.
func (n *Normalizer) Normalize(doc *Document) ([]*annotation.Annotation, error) {
	var out []*annotation.Annotation
	var history []annotation.StepSnapshot

	for _, step := range doc.Steps {
		path := step.Screenshot
		if n.ScreenshotPath != nil {
			path = n.ScreenshotPath(step.Screenshot)
		}
		if n.ScreenshotExists != nil && !n.ScreenshotExists(path) {
			// Deliberate skip: the step contributes nothing to output or to
			// later steps' history.
			log.Printf("warning: screenshot not found: %s (skipping step %d of %s)", path, step.Step, doc.EpisodeID)
			n.logEvent(diag.NewEvent(diag.EventTypeMissingScreenshot, doc.EpisodeID).
				WithStep(step.Step).WithPath(path))
			continue
		}

		history = append(history, annotation.StepSnapshot{
			Step:   step.Step,
			Action: step.Action,
			Info:   append(json.RawMessage(nil), step.Info...),
		})

		payload, known, err := buildPayload(doc.EpisodeID, step)
		if err != nil {
			return nil, err
		}
		if !known {
			log.Printf("warning: unknown action %q (step %d of %s)", step.Action, step.Step, doc.EpisodeID)
			n.logEvent(diag.NewEvent(diag.EventTypeUnknownAction, doc.EpisodeID).
				WithStep(step.Step).WithAction(step.Action))
		}

		out = append(out, &annotation.Annotation{
			EpisodeID:   doc.EpisodeID,
			DeviceName:  doc.DeviceInfo.DeviceName,
			Step:        step.Step,
			Category:    doc.TaskInfo.Category,
			MetaTask:    doc.TaskInfo.MetaTask,
			Task:        doc.TaskInfo.Task,
			Instruction: doc.TaskInfo.Instruction,
			AppsUsed:    append([]string(nil), doc.TaskInfo.Apps...),
			Screenshot:  path,
			// Each annotation owns its history slice; later appends must not
			// show through earlier records.
			History: append([]annotation.StepSnapshot(nil), history...),
			Payload: payload,
		})
	}

	return out, nil
}

func (n *Normalizer) logEvent(evt diag.Event) {
	if n.Events == nil {
		return
	}
	if err := n.Events.Log(evt); err != nil {
		log.Printf("warning: diag log: %v", err)
	}
}

// buildPayload dispatches on the action token. known is false for tokens
// outside the vocabulary, which pass through without a payload.
func buildPayload(episodeID string, step Step) (payload *annotation.Payload, known bool, err error) {
	malformed := func(reason string) error {
		return &MalformedStepError{EpisodeID: episodeID, Step: step.Step, Action: step.Action, Reason: reason}
	}

	switch step.Action {
	case ActionClick, ActionLongPress:
		info, rerr := resolveInfo(step.Info)
		if rerr != nil {
			return nil, true, malformed(rerr.Error())
		}
		switch info.kind {
		case infoPoints:
			// The raw format sometimes carries a second pair; it is
			// intentionally unused.
			p := normalizePoint(info.points[0])
			return &annotation.Payload{
				Field:    annotation.FieldPoints,
				Keypoint: &annotation.Keypoint{Label: step.Action, Point: p},
			}, true, nil
		case infoKey:
			return &annotation.Payload{
				Field:          annotation.FieldPress,
				Classification: &annotation.Classification{Label: info.key},
			}, true, nil
		default:
			return nil, true, malformed("info is neither a coordinate pair nor a KEY_ string")
		}

	case ActionScroll:
		info, rerr := resolveInfo(step.Info)
		if rerr != nil {
			return nil, true, malformed(rerr.Error())
		}
		if info.kind != infoPoints || len(info.points) < 2 {
			return nil, true, malformed("info is not a start/end coordinate pair list")
		}
		start, end := info.points[0], info.points[1]
		dir := scrollDirection(end.x-start.x, end.y-start.y)
		return &annotation.Payload{
			Field: annotation.FieldScroll,
			Scroll: &annotation.ScrollPath{
				Label: step.Action + "_" + dir,
				Start: normalizePoint(start),
				End:   normalizePoint(end),
			},
		}, true, nil

	case ActionText:
		info, rerr := resolveInfo(step.Info)
		if rerr != nil {
			return nil, true, malformed(rerr.Error())
		}
		if info.kind != infoText && info.kind != infoKey {
			return nil, true, malformed("info is not a string")
		}
		// The literal payload string, unmodified, KEY_ prefix included.
		return &annotation.Payload{
			Field:          annotation.FieldType,
			Classification: &annotation.Classification{Label: info.text},
		}, true, nil

	case ActionComplete, ActionImpossible, ActionIncomplete:
		return &annotation.Payload{
			Field:          annotation.FieldEnd,
			Classification: &annotation.Classification{Label: step.Action},
		}, true, nil

	case ActionHome, ActionBack, ActionRecent:
		return &annotation.Payload{
			Field:          annotation.FieldPress,
			Classification: &annotation.Classification{Label: step.Action},
		}, true, nil
	}

	return nil, false, nil
}

func normalizePoint(p pair) annotation.Point {
	return annotation.Point{X: p.x / coordScale, Y: p.y / coordScale}
}
