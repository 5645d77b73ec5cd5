package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"

	accountService "github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/service"
	licenseService "github.com/dmarquezv/tempmail-otp-bot/internal/modules/license/service"
	pollerService "github.com/dmarquezv/tempmail-otp-bot/internal/modules/poller/service"
	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/config"
)

// Handler handles Telegram bot interactions
type Handler struct {
	cfg            *config.Config
	accountService *accountService.Service
	licenseService *licenseService.Service
	pollerService  *pollerService.Service
}

// New creates a new Telegram handler
func New(cfg *config.Config, accountService *accountService.Service, licenseService *licenseService.Service, pollerService *pollerService.Service) *Handler {
	return &Handler{
		cfg:            cfg,
		accountService: accountService,
		licenseService: licenseService,
		pollerService:  pollerService,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/new", bot.MatchTypeExact, h.handleNew)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/list", bot.MatchTypeExact, h.handleList)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/delete", bot.MatchTypePrefix, h.handleDelete)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/inbox", bot.MatchTypeExact, h.handleInbox)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/redeem", bot.MatchTypePrefix, h.handleRedeem)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/genkey", bot.MatchTypePrefix, h.handleGenKey)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, h.handleStatus)
}

func (h *Handler) isAdmin(userID int64) bool {
	return lo.Contains(h.cfg.AdminUsers, userID)
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	text := `👋 Welcome to the temp-mail OTP bot!

I create disposable email addresses and forward the one-time codes
that arrive in them straight to this chat.

Available commands:
/new - create a disposable address
/list - list your addresses
/delete <address> - delete an address
/inbox - count pending inbox messages
/redeem <key> - redeem an access key
/status - show bot status

Example:
/new`

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

func (h *Handler) handleNew(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	account, err := h.accountService.Provision(ctx, chatID)
	if err != nil {
		slog.Error("Failed to provision mailbox", "chat_id", chatID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Failed to create a disposable address, try again later.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      fmt.Sprintf("✅ Address created: `%s`\nUse it wherever a verification code is needed.", account.Email),
		ParseMode: models.ParseModeMarkdown,
	})
}

func (h *Handler) handleList(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	accounts, err := h.accountService.List(chatID)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("❌ Failed to list addresses: %v", err),
		})
		return
	}

	if len(accounts) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "📭 No addresses yet. Use /new to create one.",
		})
		return
	}

	var text strings.Builder
	text.WriteString("📬 Your addresses:\n\n")
	for i, account := range accounts {
		text.WriteString(fmt.Sprintf("%d. %s (created %s)\n", i+1, account.Email, account.CreatedAt.Format("2006-01-02")))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text.String(),
	})
}

func (h *Handler) handleDelete(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Usage: /delete <address>",
		})
		return
	}

	email := parts[1]
	if err := h.accountService.Remove(chatID, email); err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("❌ Address not found: %s", email),
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("🗑 Address deleted: %s", email),
	})
}

func (h *Handler) handleInbox(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	total, err := h.accountService.InboxCount(ctx, chatID)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("❌ Failed to count inbox messages: %v", err),
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("📥 Pending inbox messages: %d", total),
	})
}

func (h *Handler) handleRedeem(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Usage: /redeem <key>",
		})
		return
	}

	sub, err := h.licenseService.Redeem(chatID, parts[1])
	if err != nil {
		slog.Warn("Key redemption failed", "chat_id", chatID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Invalid or already redeemed key.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("✅ Key redeemed! Subscription active until %s.", sub.ExpiresAt.Format(time.RFC1123)),
	})
}

func (h *Handler) handleGenKey(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	if !h.isAdmin(update.Message.From.ID) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Unauthorized",
		})
		return
	}

	parts := strings.Fields(update.Message.Text)
	days := 30
	if len(parts) >= 2 {
		parsed, err := strconv.Atoi(parts[1])
		if err != nil || parsed <= 0 {
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "Usage: /genkey <days>",
			})
			return
		}
		days = parsed
	}

	key, err := h.licenseService.GenerateKey(days)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("❌ Failed to generate key: %v", err),
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      fmt.Sprintf("🔑 Key for %d days:\n`%s`", key.Days, key.Code),
		ParseMode: models.ParseModeMarkdown,
	})
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	accounts, err := h.accountService.List(chatID)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("❌ Failed to get status: %v", err),
		})
		return
	}

	license := "not required"
	if h.cfg.RequireLicense {
		if h.licenseService.IsActive(chatID) {
			license = fmt.Sprintf("active until %s", h.licenseService.Expiry(chatID).Format("2006-01-02"))
		} else {
			license = "inactive"
		}
	}

	text := fmt.Sprintf(`📊 Bot Status:

Your addresses: %d
Subscription: %s
Poll interval: %d seconds
Poll cycles completed: %d
Messages tracked: %d`,
		len(accounts), license, h.cfg.PollInterval, h.pollerService.Cycles(), h.pollerService.SeenCount())

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}
