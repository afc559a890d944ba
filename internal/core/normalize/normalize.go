package normalize

import (
	"github.com/inkroom-io/inkroom-go/internal/core/domain"
)

// Event normalizes a decoded inbound message arriving on a connection
// bound to roomID.
//
// Clamping rules: stroke width to [1,60] (default 8), coordinates to
// [0,1] (missing or non-numeric becomes {0,0}), tool to pen unless
// exactly eraser, color passed through only when it is a string. A
// declared room differing from the connection's room rejects the message
// with domain.ErrRoomMismatch; an absent room binds to the connection's
// room. The server timestamp is not assigned here.
func Event(raw map[string]any, roomID string) (domain.Event, error) {
	declared := asString(raw["room"])
	if declared != "" && declared != roomID {
		return domain.Event{}, domain.ErrRoomMismatch
	}

	switch asString(raw["type"]) {
	case string(domain.EventStroke):
		page := asInt(raw["page"], 0)
		if page < 0 {
			page = 0
		}
		return domain.Event{
			Type:  domain.EventStroke,
			Room:  roomID,
			Page:  page,
			From:  asString(raw["from"]),
			Tool:  asTool(raw["tool"]),
			Size:  clampInt(asInt(raw["size"], domain.DefaultStrokeSize), domain.MinStrokeSize, domain.MaxStrokeSize),
			Color: asColor(raw["color"]),
			A:     asPoint(raw["a"]),
			B:     asPoint(raw["b"]),
			End:   asBool(raw["end"]),
		}, nil

	case string(domain.EventPageInfo):
		count := asInt(raw["count"], 1)
		if count < 1 {
			count = 1
		}
		return domain.Event{
			Type:  domain.EventPageInfo,
			Room:  roomID,
			Count: count,
		}, nil
	}

	return domain.Event{}, domain.ErrUnknownEventType
}

// asTool accepts exactly the eraser; everything else is a pen.
func asTool(v any) string {
	if asString(v) == domain.ToolEraser {
		return domain.ToolEraser
	}
	return domain.ToolPen
}

func asColor(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return domain.DefaultColor
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt coerces a JSON number to an integer, falling back to def for
// missing or non-numeric values.
func asInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampCoord(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// asPoint coerces one endpoint. Missing or non-numeric coordinates become
// zero; numeric coordinates are clamped to the unit interval.
func asPoint(v any) domain.Point {
	m, ok := v.(map[string]any)
	if !ok {
		return domain.Point{}
	}
	var p domain.Point
	if x, ok := m["x"].(float64); ok {
		p.X = clampCoord(x)
	}
	if y, ok := m["y"].(float64); ok {
		p.Y = clampCoord(y)
	}
	return p
}
