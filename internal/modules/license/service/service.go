package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/license/domain"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/license/repository"
	sharedErrors "github.com/dmarquezv/tempmail-otp-bot/internal/shared/errors"
	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/metrics"
)

// Service handles license keys and subscriptions. When the licensing
// gate is disabled every chat is entitled, matching the open variants
// of the bot.
type Service struct {
	repo     repository.Repository
	required bool
}

// New creates a new license service
func New(repo repository.Repository, required bool) *Service {
	return &Service{
		repo:     repo,
		required: required,
	}
}

// GenerateKey mints a new key valid for the given number of days.
func (s *Service) GenerateKey(days int) (*domain.Key, error) {
	if days <= 0 {
		return nil, oops.With("days", days).Errorf("key duration must be positive")
	}

	key := &domain.Key{
		Code:      strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16],
		Days:      days,
		CreatedAt: time.Now(),
	}
	if err := s.repo.SaveKey(key); err != nil {
		return nil, err
	}

	return key, nil
}

// Redeem activates a key for a chat. An active subscription is extended
// from its current expiry; a lapsed or missing one starts from now.
func (s *Service) Redeem(chatID int64, code string) (*domain.Subscription, error) {
	key, err := s.repo.GetKey(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if key.Redeemed() {
		return nil, oops.With("code", key.Code, "chat_id", chatID).Wrap(sharedErrors.ErrKeyAlreadyRedeemed)
	}

	now := time.Now()
	sub, err := s.repo.GetSubscription(chatID)
	if err != nil {
		return nil, err
	}

	base := now
	if sub != nil && sub.Active(now) {
		base = sub.ExpiresAt
	}

	updated := &domain.Subscription{
		ChatID:    chatID,
		ExpiresAt: base.Add(time.Duration(key.Days) * 24 * time.Hour),
	}
	if err := s.repo.SaveSubscription(updated); err != nil {
		return nil, err
	}

	key.RedeemedBy = chatID
	key.RedeemedAt = now
	if err := s.repo.SaveKey(key); err != nil {
		// The subscription is already granted; losing the redemption
		// record means the key could be reused, so surface loudly.
		slog.Error("Failed to mark key redeemed", "code", key.Code, "chat_id", chatID, "error", err)
	}

	metrics.KeysRedeemed.Inc()
	return updated, nil
}

// IsActive reports whether a chat is currently entitled to polling.
func (s *Service) IsActive(chatID int64) bool {
	if !s.required {
		return true
	}

	sub, err := s.repo.GetSubscription(chatID)
	if err != nil {
		slog.Error("Failed to load subscription", "chat_id", chatID, "error", err)
		return false
	}
	return sub != nil && sub.Active(time.Now())
}

// Expiry returns a chat's subscription expiry, zero when absent.
func (s *Service) Expiry(chatID int64) time.Time {
	sub, err := s.repo.GetSubscription(chatID)
	if err != nil || sub == nil {
		return time.Time{}
	}
	return sub.ExpiresAt
}
