package models

import "time"

// RefreshToken represents the refresh_tokens table.
//
// The raw token value is never stored; only its SHA-256 hash. Successive
// refreshes form a rotation chain linked through RotatedFromID/RotatedToID:
// a singly linked list rooted at the token issued at login. At most one
// unrevoked token per chain is valid at any instant.
type RefreshToken struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	TokenHash     string    `gorm:"not null;size:64;uniqueIndex" json:"-"`
	ExpiresAt     time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
	Revoked       bool      `gorm:"default:false" json:"revoked"`
	RotatedFromID *uint     `gorm:"index" json:"rotated_from_id,omitempty"`
	RotatedToID   *uint     `gorm:"index" json:"rotated_to_id,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// Expired reports whether the token is past its expiry at the given instant.
// Expiry is detected lazily at validation; there is no explicit state write.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Rotated reports whether the token was consumed by a successful refresh.
func (t *RefreshToken) Rotated() bool {
	return t.RotatedToID != nil
}
