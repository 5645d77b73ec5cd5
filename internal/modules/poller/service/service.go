// Package service runs the recurring inbox poll: every interval it fans
// out across all registered (chat, account) pairs, filters already-seen
// messages, extracts passcodes, and relays notifications.
package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	accountDomain "github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/domain"
	mailDomain "github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/domain"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/extractor"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/notify"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/poller/ledger"
	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/config"
	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/metrics"
)

// Source is the mail provider slice the poller needs. ListMessages and
// DeleteMessage carry the degraded contract: they never return errors,
// only empty results.
type Source interface {
	ListMessages(ctx context.Context, account *accountDomain.Account) []*mailDomain.Message
	DeleteMessage(ctx context.Context, account *accountDomain.Account, messageID string)
	FetchAttachment(ctx context.Context, account *accountDomain.Account, att mailDomain.Attachment) ([]byte, error)
}

// Transport delivers notifications to a chat.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error
	SendPhoto(ctx context.Context, chatID int64, filename string, data []byte) error
}

// Registry exposes the (chat, accounts) mapping.
type Registry interface {
	All() (map[int64][]*accountDomain.Account, error)
}

// Entitlements gates polling per chat.
type Entitlements interface {
	IsActive(chatID int64) bool
}

// Service drives the poll loop.
type Service struct {
	cfg          *config.Config
	source       Source
	registry     Registry
	entitlements Entitlements
	formatter    *notify.Formatter
	ledger       *ledger.Ledger
	transport    Transport
	cycles       atomic.Uint64
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// New creates a new poller service
func New(cfg *config.Config, source Source, registry Registry, entitlements Entitlements, formatter *notify.Formatter, seen *ledger.Ledger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:          cfg,
		source:       source,
		registry:     registry,
		entitlements: entitlements,
		formatter:    formatter,
		ledger:       seen,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetTransport sets the chat transport instance
func (s *Service) SetTransport(t Transport) {
	s.transport = t
}

// Start begins the poll loop
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.pollLoop()
}

// Stop stops the poll loop and waits for in-flight work
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

// SeenCount returns the number of ids in the dedup ledger.
func (s *Service) SeenCount() int {
	return s.ledger.Len()
}

// Cycles returns the number of completed poll cycles.
func (s *Service) Cycles() uint64 {
	return s.cycles.Load()
}

func (s *Service) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Duration(s.cfg.PollInterval) * time.Second)
	defer ticker.Stop()

	// Initial cycle
	s.cycle()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.cycle()
		}
	}
}

// cycle recovers panics in the snapshot and fan-out bookkeeping; the
// chat workers carry their own recover in pollChat. Nothing in a poll
// cycle may terminate the loop.
func (s *Service) cycle() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Poll cycle panicked", "panic", r)
		}
	}()

	if s.transport == nil {
		slog.Warn("Poll cycle skipped, transport not initialized")
		return
	}

	registry, err := s.registry.All()
	if err != nil {
		slog.Error("Failed to load account registry", "error", err)
		return
	}

	chatIDs := lo.Keys(registry)
	slices.Sort(chatIDs)

	var cycleWG sync.WaitGroup
	for _, chatID := range chatIDs {
		accounts := registry[chatID]
		if len(accounts) == 0 {
			continue
		}

		// Lapsed subscribers are skipped before any upstream call.
		if !s.entitlements.IsActive(chatID) {
			slog.Debug("Skipping chat without active subscription", "chat_id", chatID)
			continue
		}

		cycleWG.Add(1)
		go func(chatID int64, accounts []*accountDomain.Account) {
			defer cycleWG.Done()
			s.pollChat(chatID, accounts)
		}(chatID, accounts)
	}
	cycleWG.Wait()

	s.cycles.Add(1)
	metrics.PollCycles.Inc()
}

// pollChat polls one chat's accounts sequentially; a fetch failure for
// one account surfaces as an empty list and never affects the next.
// The recover here is the real backstop: the chat workers run on their
// own goroutines, out of reach of any deferred recover on the cycle.
func (s *Service) pollChat(chatID int64, accounts []*accountDomain.Account) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Chat poll panicked", "chat_id", chatID, "panic", r)
		}
	}()

	for _, account := range accounts {
		messages := s.source.ListMessages(s.ctx, account)
		if len(messages) > 0 {
			slog.Debug("Inbox fetched", "email", account.Email, "count", len(messages))
		}

		// Messages stay in provider arrival order within an account.
		for _, msg := range messages {
			s.processMessage(chatID, account, msg)
		}
	}
}

func (s *Service) processMessage(chatID int64, account *accountDomain.Account, msg *mailDomain.Message) {
	if msg.ID == "" {
		slog.Warn("Message without id skipped", "email", account.Email)
		return
	}

	// Mark before delivering: a delivery failure must never cause
	// reprocessing, at the cost of a lost notification.
	if !s.ledger.MarkIfNew(msg.ID) {
		return
	}
	metrics.MessagesProcessed.Inc()

	res := extractor.Extract(msg)
	metrics.CodesExtracted.WithLabelValues(string(res.Origin)).Inc()
	if res.Found() {
		slog.Info("Passcode extracted", "email", account.Email, "message_id", msg.ID, "origin", res.Origin)
	}

	n := s.formatter.Format(account, msg, res)

	if err := s.transport.SendText(s.ctx, chatID, n.Text); err != nil {
		metrics.DeliveryFailures.Inc()
		slog.Error("Failed to deliver notification", "chat_id", chatID, "message_id", msg.ID, "error", err)
	}

	for _, file := range n.Files {
		if err := s.transport.SendDocument(s.ctx, chatID, file.Filename, file.Data); err != nil {
			metrics.DeliveryFailures.Inc()
			slog.Error("Failed to deliver file", "chat_id", chatID, "filename", file.Filename, "error", err)
		}
	}

	s.forwardAttachments(chatID, account, n.Remote)

	// Best-effort upstream cleanup; the adapter logs its own failures.
	s.source.DeleteMessage(s.ctx, account, msg.ID)
}

// forwardAttachments fetches each attachment opportunistically; one
// failed download never blocks the rest.
func (s *Service) forwardAttachments(chatID int64, account *accountDomain.Account, attachments []mailDomain.Attachment) {
	for _, att := range attachments {
		data, err := s.source.FetchAttachment(s.ctx, account, att)
		if err != nil {
			slog.Warn("Attachment fetch failed", "email", account.Email, "filename", att.Filename, "error", err)
			continue
		}

		if notify.IsImage(att.Filename) {
			err = s.transport.SendPhoto(s.ctx, chatID, att.Filename, data)
		} else {
			err = s.transport.SendDocument(s.ctx, chatID, att.Filename, data)
		}
		if err != nil {
			metrics.DeliveryFailures.Inc()
			slog.Error("Failed to forward attachment", "chat_id", chatID, "filename", att.Filename, "error", err)
		}
	}
}
