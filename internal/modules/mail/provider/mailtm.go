// Package provider speaks the temp-mail REST API (mail.tm-shaped) on
// behalf of the rest of the application. Provisioning calls return
// errors normally; the poll-path calls (ListMessages, DeleteMessage)
// degrade to empty results and logs, so an upstream outage can never
// abort a poll cycle.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/samber/oops"

	accountDomain "github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/domain"
	mailDomain "github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/domain"
	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/metrics"
)

// maxResponseBytes bounds upstream payloads we are willing to buffer.
const maxResponseBytes = 4 << 20

// Client talks to one temp-mail provider instance.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a provider client. Every request carries the given
// timeout through the HTTP client; a stuck upstream call can therefore
// never stall a poll cycle indefinitely.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger
func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

type hydraDomains struct {
	Member []struct {
		Domain string `json:"domain"`
	} `json:"hydra:member"`
}

type hydraMessages struct {
	Member []*mailDomain.Message `json:"hydra:member"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type selfResponse struct {
	ID string `json:"id"`
}

// Domains lists the mail domains currently offered by the provider.
func (c *Client) Domains(ctx context.Context) ([]string, error) {
	var out hydraDomains
	if err := c.do(ctx, http.MethodGet, "/domains", "", nil, &out); err != nil {
		return nil, oops.With("context", "listing provider domains").Wrap(err)
	}

	domains := make([]string, 0, len(out.Member))
	for _, m := range out.Member {
		domains = append(domains, m.Domain)
	}
	return domains, nil
}

// CreateAccount registers a mailbox with the provider.
func (c *Client) CreateAccount(ctx context.Context, address, password string) error {
	payload := map[string]string{"address": address, "password": password}
	if err := c.do(ctx, http.MethodPost, "/accounts", "", payload, nil); err != nil {
		return oops.With("address", address, "context", "creating provider account").Wrap(err)
	}
	return nil
}

// IssueToken exchanges mailbox credentials for a bearer token.
func (c *Client) IssueToken(ctx context.Context, address, password string) (string, error) {
	payload := map[string]string{"address": address, "password": password}
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/token", "", payload, &out); err != nil {
		return "", oops.With("address", address, "context", "issuing provider token").Wrap(err)
	}
	return out.Token, nil
}

// Self resolves the provider-side id of the mailbox the token belongs to.
func (c *Client) Self(ctx context.Context, token string) (string, error) {
	var out selfResponse
	if err := c.do(ctx, http.MethodGet, "/me", token, nil, &out); err != nil {
		return "", oops.With("context", "resolving provider account id").Wrap(err)
	}
	return out.ID, nil
}

// ListMessages fetches the inbox for an account. On any transport
// error, non-success status, or malformed payload it returns nil and
// reports the failure; it never propagates an error to the caller. An
// expired or rejected credential is treated the same way.
func (c *Client) ListMessages(ctx context.Context, account *accountDomain.Account) []*mailDomain.Message {
	var out hydraMessages
	if err := c.do(ctx, http.MethodGet, "/messages", account.Token, nil, &out); err != nil {
		metrics.FetchFailures.Inc()
		c.logger.Warn("Inbox fetch failed", "email", account.Email, "error", err)
		return nil
	}
	return out.Member
}

// DeleteMessage removes a message upstream, best-effort.
func (c *Client) DeleteMessage(ctx context.Context, account *accountDomain.Account, messageID string) {
	if err := c.do(ctx, http.MethodDelete, "/messages/"+messageID, account.Token, nil, nil); err != nil {
		metrics.DeleteFailures.Inc()
		c.logger.Warn("Upstream delete failed", "email", account.Email, "message_id", messageID, "error", err)
	}
}

// FetchAttachment downloads one attachment's bytes. Unlike the poll
// path this returns an error: the caller skips the one attachment and
// carries on with the rest.
func (c *Client) FetchAttachment(ctx context.Context, account *accountDomain.Account, att mailDomain.Attachment) ([]byte, error) {
	target := att.DownloadURL
	if target != "" && target[0] == '/' {
		target = c.baseURL + target
	}

	var data []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+account.Token)

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					c.logger.Warn("Failed to close response body", "error", closeErr)
				}
			}()

			if resp.StatusCode >= 500 {
				return oops.With("url", target, "status", resp.StatusCode).Errorf("provider server error")
			}
			if resp.StatusCode >= 300 {
				return retry.Unrecoverable(
					oops.With("url", target, "status", resp.StatusCode).Errorf("attachment download rejected"))
			}

			data, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			return err
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, oops.With("filename", att.Filename).Wrap(err)
	}
	return data, nil
}

// do performs one JSON request with bounded retries. Client errors
// (auth, validation) are not retried; network errors and 5xx are.
func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	return retry.Do(
		func() error {
			var body io.Reader = http.NoBody
			if payload != nil {
				data, err := json.Marshal(payload)
				if err != nil {
					return retry.Unrecoverable(oops.With("path", path).Wrap(err))
				}
				body = bytes.NewReader(data)
			}

			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					c.logger.Warn("Failed to close response body", "error", closeErr)
				}
			}()

			if resp.StatusCode >= 500 {
				return oops.With("path", path, "status", resp.StatusCode).Errorf("provider server error")
			}
			if resp.StatusCode >= 300 {
				return retry.Unrecoverable(
					oops.With("path", path, "status", resp.StatusCode).Errorf("provider request rejected"))
			}

			if out == nil {
				return nil
			}

			data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			if err != nil {
				return oops.With("path", path).Wrap(err)
			}
			if err := json.Unmarshal(data, out); err != nil {
				return retry.Unrecoverable(oops.With("path", path).Wrap(err))
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("Retrying provider request", "path", path, "attempt", n+1, "error", err)
		}),
	)
}
