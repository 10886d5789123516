package model

// RoomStatus enumerates the states of an exam room as reported by the server.
type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "WAITING"
	RoomStatusInProgress RoomStatus = "IN_PROGRESS"
	RoomStatusFinished   RoomStatus = "FINISHED"
)

// RoomSummary is one row of the LIST_ROOMS response.
type RoomSummary struct {
	RoomID           int64      `json:"room_id"`
	RoomName         string     `json:"room_name"`
	RoomCode         string     `json:"room_code"`
	Status           RoomStatus `json:"status"`
	DurationSeconds  int        `json:"duration_seconds"`
	ParticipantCount int        `json:"participant_count"`
}

// Joinable reports whether a student may join or observe the room from the lobby.
func (r RoomSummary) Joinable() bool {
	return r.Status == RoomStatusWaiting || r.Status == RoomStatusInProgress
}

// Startable reports whether an admin may start the room.
func (r RoomSummary) Startable() bool {
	return r.Status == RoomStatusWaiting
}
