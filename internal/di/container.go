package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/samber/do/v2"
	"github.com/samber/oops"

	accountRepo "github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/repository"
	accountService "github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/service"
	licenseRepo "github.com/dmarquezv/tempmail-otp-bot/internal/modules/license/repository"
	licenseService "github.com/dmarquezv/tempmail-otp-bot/internal/modules/license/service"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/provider"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/notify"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/poller/ledger"
	pollerService "github.com/dmarquezv/tempmail-otp-bot/internal/modules/poller/service"
	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/config"
	httpServer "github.com/dmarquezv/tempmail-otp-bot/internal/transport/http"
	telegramHandler "github.com/dmarquezv/tempmail-otp-bot/internal/transport/telegram"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Mail Provider Client
	do.Provide(injector, func(i do.Injector) (*provider.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := provider.NewClient(cfg.MailAPIURL, time.Duration(cfg.RequestTimeout)*time.Second)
		client.SetLogger(slog.Default())
		return client, nil
	})

	// Register Account Repository
	do.Provide(injector, func(i do.Injector) (accountRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := accountRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize account repository").Wrap(err)
		}
		return repo, nil
	})

	// Register License Repository
	do.Provide(injector, func(i do.Injector) (licenseRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := licenseRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize license repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Account Service
	do.Provide(injector, func(i do.Injector) (*accountService.Service, error) {
		repo := do.MustInvoke[accountRepo.Repository](i)
		client := do.MustInvoke[*provider.Client](i)
		return accountService.New(repo, client), nil
	})

	// Register License Service
	do.Provide(injector, func(i do.Injector) (*licenseService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[licenseRepo.Repository](i)
		return licenseService.New(repo, cfg.RequireLicense), nil
	})

	// Register Poller Service
	do.Provide(injector, func(i do.Injector) (*pollerService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[*provider.Client](i)
		accounts := do.MustInvoke[accountRepo.Repository](i)
		licenses := do.MustInvoke[*licenseService.Service](i)
		formatter := notify.New(cfg.ForwardAttachments, cfg.PreserveRawHTML)
		return pollerService.New(cfg, client, accounts, licenses, formatter, ledger.New(cfg.SeenCacheSize)), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		accounts := do.MustInvoke[*accountService.Service](i)
		licenses := do.MustInvoke[*licenseService.Service](i)
		poller := do.MustInvoke[*pollerService.Service](i)
		return telegramHandler.New(cfg, accounts, licenses, poller), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		accounts := do.MustInvoke[*accountService.Service](i)
		poller := do.MustInvoke[*pollerService.Service](i)
		server := httpServer.New(cfg, accounts, poller)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegramHandler.Handler](i)

		b, err := bot.New(cfg.TelegramBotToken)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands
		handler.RegisterCommands(b)

		// Set transport in poller service
		poller := do.MustInvoke[*pollerService.Service](i)
		poller.SetTransport(telegramHandler.NewSender(b))

		return b, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx := context.Background()

	// Shutdown bot if it exists
	if b, err := do.Invoke[*bot.Bot](injector); err == nil && b != nil {
		b.Close(ctx)
	}

	// Shutdown poller if it exists
	if poller, err := do.Invoke[*pollerService.Service](injector); err == nil && poller != nil {
		poller.Stop()
	}

	return nil
}
