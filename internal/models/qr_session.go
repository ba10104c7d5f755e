package models

import "time"

// QRSession is the single active check-in token for an activity. Issuing a
// new session replaces the previous one; stale tokens stop validating.
type QRSession struct {
	ActivityID uint      `json:"activity_id"`
	Token      string    `json:"token"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IssuerID   uint      `json:"issuer_id"`
}

// Expired reports whether the session token is past its validity.
func (s QRSession) Expired(reference time.Time) bool {
	return !reference.Before(s.ExpiresAt)
}
