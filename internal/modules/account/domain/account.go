package domain

import "time"

// Account is a provisioned disposable mailbox owned by exactly one chat.
// Token is the provider bearer credential; UpstreamID is the provider's
// own identifier for the mailbox.
type Account struct {
	Email      string    `json:"email"`
	Password   string    `json:"password"`
	Token      string    `json:"token"`
	UpstreamID string    `json:"upstream_id"`
	CreatedAt  time.Time `json:"created_at"`
}
