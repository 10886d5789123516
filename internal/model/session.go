package model

// Role enumerates the account roles the quiz server assigns on login.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
)

// Session is the authenticated identity of this client.
// The token is attached to every request sent after login.
type Session struct {
	Token  string `json:"token"`
	Role   Role   `json:"role"`
	Logged bool   `json:"logged"`
}

// TokenPrefix returns a short, log-safe prefix of the session token.
func (s Session) TokenPrefix() string {
	if len(s.Token) <= 8 {
		return s.Token
	}
	return s.Token[:8]
}
