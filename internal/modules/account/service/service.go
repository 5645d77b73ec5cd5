package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/domain"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/repository"
	mailDomain "github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/domain"
	sharedErrors "github.com/dmarquezv/tempmail-otp-bot/internal/shared/errors"
	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/metrics"
)

// Provider is the slice of the mail provider the account service needs.
type Provider interface {
	Domains(ctx context.Context) ([]string, error)
	CreateAccount(ctx context.Context, address, password string) error
	IssueToken(ctx context.Context, address, password string) (string, error)
	Self(ctx context.Context, token string) (string, error)
	ListMessages(ctx context.Context, account *domain.Account) []*mailDomain.Message
}

// Service handles mailbox registry business logic
type Service struct {
	repo     repository.Repository
	provider Provider
}

// New creates a new account service
func New(repo repository.Repository, provider Provider) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
	}
}

// Provision creates a fresh disposable mailbox for a chat: pick the
// first available domain, register a random address, exchange the
// credentials for a bearer token, resolve the upstream id, persist.
func (s *Service) Provision(ctx context.Context, chatID int64) (*domain.Account, error) {
	domains, err := s.provider.Domains(ctx)
	if err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to list domains").Wrap(err)
	}
	if len(domains) == 0 {
		return nil, sharedErrors.ErrNoDomainsAvailable
	}

	email := randomLocalPart() + "@" + domains[0]
	// Providers enforce password policies (length, case, symbol); the
	// password is throwaway but must pass validation.
	password := "Tm-" + uuid.NewString()[:13] + "!"

	if err := s.provider.CreateAccount(ctx, email, password); err != nil {
		return nil, oops.With("chat_id", chatID, "email", email, "context", "failed to create mailbox").Wrap(err)
	}

	token, err := s.provider.IssueToken(ctx, email, password)
	if err != nil {
		return nil, oops.With("chat_id", chatID, "email", email, "context", "failed to issue token").Wrap(err)
	}

	upstreamID, err := s.provider.Self(ctx, token)
	if err != nil {
		return nil, oops.With("chat_id", chatID, "email", email, "context", "failed to resolve upstream id").Wrap(err)
	}

	account := &domain.Account{
		Email:      email,
		Password:   password,
		Token:      token,
		UpstreamID: upstreamID,
		CreatedAt:  time.Now(),
	}

	accounts, err := s.repo.Get(chatID)
	if err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to load accounts").Wrap(err)
	}
	if err := s.repo.Put(chatID, append(accounts, account)); err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to persist account").Wrap(err)
	}

	metrics.AccountsProvisioned.Inc()
	return account, nil
}

// List retrieves the mailboxes owned by a chat
func (s *Service) List(chatID int64) ([]*domain.Account, error) {
	return s.repo.Get(chatID)
}

// Remove deletes a mailbox from a chat's registry
func (s *Service) Remove(chatID int64, email string) error {
	return s.repo.Delete(chatID, email)
}

// All returns the full (chat, accounts) registry
func (s *Service) All() (map[int64][]*domain.Account, error) {
	return s.repo.All()
}

// InboxCount sums the live inbox sizes across a chat's mailboxes.
// Fetch failures count as empty, matching the poll-path contract.
func (s *Service) InboxCount(ctx context.Context, chatID int64) (int, error) {
	accounts, err := s.repo.Get(chatID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, account := range accounts {
		total += len(s.provider.ListMessages(ctx, account))
	}
	return total, nil
}

func randomLocalPart() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
