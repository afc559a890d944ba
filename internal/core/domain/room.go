package domain

// Room is the authoritative state of one collaboration room.
//
// Events is the ordered, append-only log; insertion order is the causal
// order every client's replay will observe. PageCount is monotonically
// non-decreasing and always at least the highest page index referenced
// by any stroke event plus one.
//
// Room is a plain value object; callers are responsible for serializing
// concurrent mutation (see the storage engine).
type Room struct {
	ID        string  `json:"room"`
	PageCount int     `json:"pageCount"`
	Events    []Event `json:"history"`

	// SavedAt is the unix-millisecond timestamp of the last persisted
	// snapshot, zero if the room has never been saved.
	SavedAt int64 `json:"savedAt"`
}

// NewRoom creates an empty room with a single page.
func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		PageCount: 1,
		Events:    make([]Event, 0),
	}
}

// Append appends an accepted event to the log.
//
// Timestamps are forced non-decreasing against the log tail, and a stroke
// referencing a page beyond the current count raises the count so the
// page-count invariant holds even when a client draws on a page it created
// locally before the pageinfo message arrived.
func (r *Room) Append(ev Event) {
	if last := r.LastTS(); ev.TS < last {
		ev.TS = last
	}
	if ev.Type == EventStroke && ev.Page+1 > r.PageCount {
		r.PageCount = ev.Page + 1
	}
	if ev.Type == EventPageInfo && ev.Count > r.PageCount {
		r.PageCount = ev.Count
	}
	r.Events = append(r.Events, ev)
}

// LastTS returns the timestamp of the newest event, zero for an empty log.
func (r *Room) LastTS() int64 {
	if len(r.Events) == 0 {
		return 0
	}
	return r.Events[len(r.Events)-1].TS
}

// Clone returns a deep copy of the room.
//
// The event log is copied so the caller can hand the result to a replay
// or a snapshot writer without racing later appends.
func (r *Room) Clone() *Room {
	events := make([]Event, len(r.Events))
	copy(events, r.Events)
	return &Room{
		ID:        r.ID,
		PageCount: r.PageCount,
		Events:    events,
		SavedAt:   r.SavedAt,
	}
}

// Validate checks the room's structural invariants.
func (r *Room) Validate() error {
	if r.ID == "" {
		return ErrRoomValidation.WithDetails("empty room id")
	}
	if r.PageCount < 1 {
		return ErrRoomValidation.WithDetails("page count below 1")
	}
	for i := range r.Events {
		if r.Events[i].Room != r.ID {
			return ErrRoomValidation.WithDetails("event room id mismatch")
		}
	}
	return nil
}
