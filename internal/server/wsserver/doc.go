// Package wsserver is the WebSocket transport for the sync engine.
//
// Each accepted connection runs the standard two-goroutine pump: a read
// loop that decodes frames and hands them to the room service, and a
// write loop that drains the session's outbound queue. The queue is
// bounded; the room service drops a session whose queue fills instead
// of letting one slow reader stall a room.
package wsserver
