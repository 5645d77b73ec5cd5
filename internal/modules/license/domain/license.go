package domain

import "time"

// Key is a redeemable, time-limited access key. A key grants Days of
// polling to the chat that redeems it and can be redeemed once.
type Key struct {
	Code       string    `json:"code"`
	Days       int       `json:"days"`
	CreatedAt  time.Time `json:"created_at"`
	RedeemedBy int64     `json:"redeemed_by,omitempty"`
	RedeemedAt time.Time `json:"redeemed_at,omitempty"`
}

// Redeemed reports whether the key has already been used.
func (k *Key) Redeemed() bool {
	return k.RedeemedBy != 0
}

// Subscription is a chat's polling entitlement.
type Subscription struct {
	ChatID    int64     `json:"chat_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the subscription covers the given instant.
func (s *Subscription) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
