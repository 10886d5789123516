package websocket

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// writeFrame sends one text frame with a write deadline.
func writeFrame(conn *websocket.Conn, frame []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// closedCleanly reports whether a read error is an orderly close.
func closedCleanly(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	return errors.Is(err, websocket.ErrCloseSent)
}
