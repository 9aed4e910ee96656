package model

// FreeSessionID marks a token row that is not bound to any conversation.
const FreeSessionID = "0"

// UserSession is one authorization slot of the token pool.
type UserSession struct {
	Token      string `db:"token" json:"token"`
	SessionID  string `db:"session_id" json:"sessionId"`
	Authorized bool   `db:"authorized" json:"authorized"`
	Model      string `db:"model" json:"model"`
}

// Active reports whether the slot is claimed by a real conversation.
func (s *UserSession) Active() bool {
	return s.Authorized && s.SessionID != "" && s.SessionID != FreeSessionID
}
