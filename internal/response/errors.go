package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Connection ────────────────────────────────────────────────────
	ErrNotConnected   ErrCode = "NOT_CONNECTED"
	ErrRequestTimeout ErrCode = "REQUEST_TIMEOUT"
	ErrClientClosed   ErrCode = "CLIENT_CLOSED"
	ErrBadFrame       ErrCode = "MALFORMED_FRAME"

	// ─── Quiz server ───────────────────────────────────────────────────
	// Server ERROR frames keep their own code; this one is a fallback for
	// frames that carry none.
	ErrServer ErrCode = "SERVER_ERROR"

	// ─── Session ───────────────────────────────────────────────────────
	ErrNotLoggedIn      ErrCode = "NOT_LOGGED_IN"
	ErrNoRoomSelected   ErrCode = "NO_ROOM_SELECTED"
	ErrNotJoined        ErrCode = "NOT_JOINED"
	ErrRoomNotStartable ErrCode = "ROOM_NOT_STARTABLE"
	ErrNoActivity       ErrCode = "NO_ACTIVITY"
	ErrActivityClosed   ErrCode = "ACTIVITY_CLOSED"
	ErrSubmitInProgress ErrCode = "SUBMIT_IN_PROGRESS"
	ErrInvalidAnswer    ErrCode = "INVALID_ANSWER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrArchiveDisabled ErrCode = "ARCHIVE_DISABLED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Connection ────────────────────────────────────────────────────
	case ErrNotConnected:
		return "Not connected to the quiz server."
	case ErrRequestTimeout:
		return "The quiz server did not answer in time."
	case ErrClientClosed:
		return "The quiz client is shutting down."
	case ErrBadFrame:
		return "The quiz server sent an unreadable response."

	// ─── Quiz server ───────────────────────────────────────────────────
	case ErrServer:
		return "The quiz server rejected the request."

	// ─── Session ───────────────────────────────────────────────────────
	case ErrNotLoggedIn:
		return "Log in first."
	case ErrNoRoomSelected:
		return "Select a room first."
	case ErrNotJoined:
		return "Join the selected room first."
	case ErrRoomNotStartable:
		return "Only a waiting room can be started."
	case ErrNoActivity:
		return "There is no active exam or practice."
	case ErrActivityClosed:
		return "This exam or practice has already been submitted."
	case ErrSubmitInProgress:
		return "A submission is already waiting for the quiz server."
	case ErrInvalidAnswer:
		return "Unknown question or option."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrArchiveDisabled:
		return "The results archive is not configured."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
