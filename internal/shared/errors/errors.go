package errors

import "errors"

var (
	ErrMissingBotToken    = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrUnauthorized       = errors.New("unauthorized user")
	ErrAccountNotFound    = errors.New("account not found")
	ErrNoDomainsAvailable = errors.New("no domains available from mail provider")
	ErrKeyNotFound        = errors.New("license key not found")
	ErrKeyAlreadyRedeemed = errors.New("license key already redeemed")
	ErrNotEntitled        = errors.New("chat has no active subscription")
)
