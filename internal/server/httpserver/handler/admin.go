package handler

import (
	"net/http"
	"time"
)

// handleListRooms handles GET /admin/v1/rooms.
func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.rooms.Rooms()
	h.writeJSON(w, r, http.StatusOK, ListRoomsResponse{
		Rooms: rooms,
		Total: len(rooms),
	})
}

// handleSaveRoom handles POST /admin/v1/rooms/{room}/save.
//
// The write bypasses the debounce window, for operators who want the
// snapshot on disk before a deploy or a backup run.
func (h *Handler) handleSaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	if err := h.rooms.Save(roomID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, SaveRoomResponse{
		Room:    roomID,
		SavedAt: time.Now().UnixMilli(),
	})
}
