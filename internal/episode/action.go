package episode

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Action tokens in the dataset's closed vocabulary.
const (
	ActionClick      = "CLICK"
	ActionLongPress  = "LONG_PRESS"
	ActionScroll     = "SCROLL"
	ActionText       = "TEXT"
	ActionComplete   = "COMPLETE"
	ActionImpossible = "IMPOSSIBLE"
	ActionIncomplete = "INCOMPLETE"
	ActionHome       = "HOME"
	ActionBack       = "BACK"
	ActionRecent     = "RECENT"
)

// keyPrefix marks a point action whose payload is a system key name rather
// than coordinates, e.g. "KEY_HOME".
const keyPrefix = "KEY_"

// coordScale is the fixed reference dimension raw pixel coordinates are
// divided by to reach the [0,1] range.
const coordScale = 1000.0

type infoKind int

const (
	infoNone infoKind = iota
	infoPoints
	infoKey
	infoText
)

// pair is a raw pixel coordinate, pre-normalization.
type pair struct {
	x, y float64
}

// stepInfo is the tagged form of a step's polymorphic info payload, resolved
// once per step instead of re-inspected at each use site.
type stepInfo struct {
	kind   infoKind
	points []pair // infoPoints: one or two coordinate pairs
	key    string // infoKey: key name with the KEY_ prefix stripped
	text   string // infoKey and infoText: the literal payload string
}

// resolveInfo classifies a raw info payload. The action token is not
// consulted here; the normalizer's dispatch decides which kinds are legal for
// which action.
func resolveInfo(raw []byte) (stepInfo, error) {
	if len(raw) == 0 {
		return stepInfo{kind: infoNone}, nil
	}
	res := gjson.ParseBytes(raw)
	switch res.Type {
	case gjson.Null:
		return stepInfo{kind: infoNone}, nil
	case gjson.String:
		text := res.String()
		if strings.HasPrefix(text, keyPrefix) {
			return stepInfo{kind: infoKey, key: strings.TrimPrefix(text, keyPrefix), text: text}, nil
		}
		return stepInfo{kind: infoText, text: text}, nil
	case gjson.JSON:
		if !res.IsArray() {
			return stepInfo{}, fmt.Errorf("info is an object, want coordinate pairs or string")
		}
		elems := res.Array()
		info := stepInfo{kind: infoPoints}
		for _, elem := range elems {
			if !elem.IsArray() {
				return stepInfo{}, fmt.Errorf("coordinate pair is %s, want [x, y]", elem.Type)
			}
			coords := elem.Array()
			if len(coords) < 2 {
				return stepInfo{}, fmt.Errorf("coordinate pair has %d values, want 2", len(coords))
			}
			info.points = append(info.points, pair{x: coords[0].Float(), y: coords[1].Float()})
		}
		if len(info.points) == 0 {
			return stepInfo{}, fmt.Errorf("empty coordinate list")
		}
		return info, nil
	default:
		return stepInfo{}, fmt.Errorf("info is %s, want coordinate pairs or string", res.Type)
	}
}

// scrollDirection infers the scroll direction label from the gesture deltas:
// a rightward swipe scrolls the content LEFT, a downward swipe scrolls UP.
// Horizontal wins only on a strict majority; a tie falls through to the
// vertical branch.
func scrollDirection(dx, dy float64) string {
	abs := func(v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	}
	if abs(dx) > abs(dy) {
		if dx > 0 {
			return "LEFT"
		}
		return "RIGHT"
	}
	if dy > 0 {
		return "UP"
	}
	return "DOWN"
}
