package repository

import (
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/license/domain"
)

// Repository defines the interface for license persistence
type Repository interface {
	SaveKey(key *domain.Key) error
	GetKey(code string) (*domain.Key, error)
	SaveSubscription(sub *domain.Subscription) error
	GetSubscription(chatID int64) (*domain.Subscription, error)
}
