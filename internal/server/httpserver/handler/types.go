package handler

import (
	"time"

	"github.com/inkroom-io/inkroom-go/internal/core/service"
)

// Response is the standard admin API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ListRoomsResponse is the response body for GET /admin/v1/rooms.
type ListRoomsResponse struct {
	Rooms []service.RoomInfo `json:"rooms"`
	Total int                `json:"total"`
}

// SaveRoomResponse is the response body for POST /admin/v1/rooms/{room}/save.
type SaveRoomResponse struct {
	Room    string `json:"room"`
	SavedAt int64  `json:"savedAt"`
}
