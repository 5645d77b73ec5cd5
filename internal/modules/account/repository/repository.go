package repository

import (
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/domain"
)

// Repository defines the interface for mailbox registry persistence.
// Mailboxes are keyed by the owning chat.
type Repository interface {
	Get(chatID int64) ([]*domain.Account, error)
	Put(chatID int64, accounts []*domain.Account) error
	Delete(chatID int64, email string) error
	All() (map[int64][]*domain.Account, error)
}
