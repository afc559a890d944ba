package domain

import "encoding/json"

// EventType discriminates the event union on the wire and in the log.
type EventType string

const (
	// EventStroke is a single pen/eraser stroke segment.
	EventStroke EventType = "seg"

	// EventPageInfo is a page-count change.
	EventPageInfo EventType = "pageinfo"
)

// Tool names accepted on stroke events.
const (
	ToolPen    = "pen"
	ToolEraser = "eraser"
)

// Stroke constraints.
const (
	MinStrokeSize     = 1
	MaxStrokeSize     = 60
	DefaultStrokeSize = 8

	// DefaultColor is used when a stroke carries no usable color.
	DefaultColor = "#1a1a2e"
)

// Point is a canvas coordinate normalized to [0,1] on both axes.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Event is one entry in a room's append-only log.
//
// It is a tagged union: EventStroke uses Page, From, Tool, Size, Color,
// A, B and End; EventPageInfo uses Count. Room and TS are common. TS is
// assigned by the server on acceptance and is non-decreasing within a
// room's log.
type Event struct {
	Type  EventType
	Room  string
	Page  int
	From  string
	Tool  string
	Size  int
	Color string
	A     Point
	B     Point
	End   bool
	Count int
	TS    int64
}

// strokeWire is the serialized form of an EventStroke.
type strokeWire struct {
	Type  EventType `json:"type"`
	Room  string    `json:"room"`
	Page  int       `json:"page"`
	From  string    `json:"from"`
	Tool  string    `json:"tool"`
	Size  int       `json:"size"`
	Color string    `json:"color"`
	A     Point     `json:"a"`
	B     Point     `json:"b"`
	End   bool      `json:"end"`
	TS    int64     `json:"ts"`
}

// pageInfoWire is the serialized form of an EventPageInfo.
type pageInfoWire struct {
	Type  EventType `json:"type"`
	Room  string    `json:"room"`
	Count int       `json:"count"`
	TS    int64     `json:"ts"`
}

// MarshalJSON serializes only the fields that belong to the event's variant,
// so a broadcast event and its replay/snapshot form are byte-identical.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Type == EventPageInfo {
		return json.Marshal(pageInfoWire{
			Type:  e.Type,
			Room:  e.Room,
			Count: e.Count,
			TS:    e.TS,
		})
	}
	return json.Marshal(strokeWire{
		Type:  e.Type,
		Room:  e.Room,
		Page:  e.Page,
		From:  e.From,
		Tool:  e.Tool,
		Size:  e.Size,
		Color: e.Color,
		A:     e.A,
		B:     e.B,
		End:   e.End,
		TS:    e.TS,
	})
}

// UnmarshalJSON decodes either variant.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w struct {
		Type  EventType `json:"type"`
		Room  string    `json:"room"`
		Page  int       `json:"page"`
		From  string    `json:"from"`
		Tool  string    `json:"tool"`
		Size  int       `json:"size"`
		Color string    `json:"color"`
		A     Point     `json:"a"`
		B     Point     `json:"b"`
		End   bool      `json:"end"`
		Count int       `json:"count"`
		TS    int64     `json:"ts"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Event{
		Type:  w.Type,
		Room:  w.Room,
		Page:  w.Page,
		From:  w.From,
		Tool:  w.Tool,
		Size:  w.Size,
		Color: w.Color,
		A:     w.A,
		B:     w.B,
		End:   w.End,
		Count: w.Count,
		TS:    w.TS,
	}
	return nil
}

// Validate checks the structural invariants every accepted event carries.
func (e *Event) Validate() error {
	if e.Room == "" {
		return ErrEventValidation.WithDetails("empty room id")
	}
	switch e.Type {
	case EventStroke:
		if e.Page < 0 {
			return ErrEventValidation.WithDetails("negative page index")
		}
		if e.Size < MinStrokeSize || e.Size > MaxStrokeSize {
			return ErrEventValidation.WithDetails("stroke size out of range")
		}
	case EventPageInfo:
		if e.Count < 1 {
			return ErrEventValidation.WithDetails("page count below 1")
		}
	default:
		return ErrUnknownEventType
	}
	return nil
}
