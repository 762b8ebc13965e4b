package models

import "time"

// Session is the server-side half of a session handle. The access token
// references it by ID and the refresh token rotates on every refresh.
type Session struct {
	BaseModel

	UserID       string     `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RefreshToken string     `gorm:"uniqueIndex;not null" json:"-"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	ExpiresAt    time.Time  `gorm:"index" json:"expires_at"`
	LastUsedAt   time.Time  `json:"last_used_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session can still be used at the given instant.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.RevokedAt == nil && s.ExpiresAt.After(now)
}
