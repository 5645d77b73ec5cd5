// Package notify renders extraction results into chat-deliverable
// notifications.
package notify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	accountDomain "github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/domain"
	mailDomain "github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/domain"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/extractor"
)

const (
	// snippetLimit caps the no-code body excerpt.
	snippetLimit = 1500
	// inlineLimit is the transport-safe primary text length; anything
	// longer is demoted to a generated file attachment.
	inlineLimit = 3500
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// File is a generated attachment delivered alongside the primary text.
type File struct {
	Filename string
	Data     []byte
}

// Notification is a rendered result ready for the chat transport.
// Remote attachments still need to be fetched by the deliverer.
type Notification struct {
	Text   string
	Files  []File
	Remote []mailDomain.Attachment
}

// Formatter turns (account, message, extraction) into notifications.
type Formatter struct {
	forwardAttachments bool
	preserveRawHTML    bool
}

// New creates a formatter with the deployment's feature flags.
func New(forwardAttachments, preserveRawHTML bool) *Formatter {
	return &Formatter{
		forwardAttachments: forwardAttachments,
		preserveRawHTML:    preserveRawHTML,
	}
}

// Format renders a notification. With a code present the primary text
// is a short highlighted line; otherwise a subject plus truncated
// snippet with the extraction diagnostics appended.
func (f *Formatter) Format(account *accountDomain.Account, msg *mailDomain.Message, res extractor.Result) *Notification {
	var text string
	if res.Found() {
		origin := string(res.Origin)
		if res.Detail != "" {
			origin += ":" + res.Detail
		}
		text = fmt.Sprintf("📲 *OTP received* at `%s`:\n`%s`\n\n_origin: %s_", account.Email, res.Code, origin)
	} else {
		var b strings.Builder
		fmt.Fprintf(&b, "📧 New message at `%s` (no OTP detected)", account.Email)
		if msg.Subject != "" {
			fmt.Fprintf(&b, "\n*%s*", msg.Subject)
		}
		if snippet := snippet(msg); snippet != "" {
			b.WriteString("\n\n")
			b.WriteString(snippet)
		}
		if res.Detail != "" {
			fmt.Fprintf(&b, "\n\n_debug: %s_", res.Detail)
		}
		text = b.String()
	}

	n := &Notification{}
	if len(text) > inlineLimit {
		n.Text = fmt.Sprintf("📧 Message at `%s` is too long for inline delivery, attached as a file.", account.Email)
		n.Files = append(n.Files, File{
			Filename: "message-" + msg.ID + ".txt",
			Data:     []byte(text),
		})
	} else {
		n.Text = text
	}

	// Never lose the original: the raw HTML rides along as a file even
	// when a code was found.
	if f.preserveRawHTML && msg.HTML != "" {
		n.Files = append(n.Files, File{
			Filename: msg.ID + ".html",
			Data:     []byte(msg.HTML),
		})
	}

	if f.forwardAttachments {
		n.Remote = msg.Attachments
	}

	return n
}

// IsImage classifies an attachment as photo vs generic document by its
// file extension.
func IsImage(filename string) bool {
	return lo.Contains(imageExtensions, strings.ToLower(filepath.Ext(filename)))
}

// snippet extracts a bounded readable excerpt, preferring plain text
// over flattened HTML.
func snippet(msg *mailDomain.Message) string {
	body := strings.TrimSpace(msg.Text)
	if body == "" && msg.HTML != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.HTML)); err == nil {
			body = extractor.VisibleText(doc)
		}
	}
	if body == "" {
		body = strings.TrimSpace(msg.Intro)
	}

	runes := []rune(body)
	if len(runes) > snippetLimit {
		return string(runes[:snippetLimit]) + "…"
	}
	return body
}
