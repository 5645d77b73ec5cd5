package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/domain"
)

func TestExtractStrategyOrder(t *testing.T) {
	tests := []struct {
		name       string
		msg        domain.Message
		wantCode   string
		wantOrigin domain.Origin
		wantDetail string
	}{
		{
			name:       "plain text body",
			msg:        domain.Message{Text: "Your code is 48213, expires soon"},
			wantCode:   "48213",
			wantOrigin: domain.OriginText,
		},
		{
			name: "text wins over html",
			msg: domain.Message{
				Text: "Use 1234 to sign in",
				HTML: "<p>Use 9999 to sign in</p>",
			},
			wantCode:   "1234",
			wantOrigin: domain.OriginText,
		},
		{
			name:       "html visible text",
			msg:        domain.Message{HTML: "<html><body><p>Verification code: <b>771234</b></p></body></html>"},
			wantCode:   "771234",
			wantOrigin: domain.OriginHtmlText,
		},
		{
			name: "href param beats incidental visible number",
			msg: domain.Message{
				HTML: `<p>Order #123 confirmed.</p><a href="https://x/y?otp=482913">Verify</a>`,
			},
			wantCode:   "482913",
			wantOrigin: domain.OriginHrefParam,
			wantDetail: "otp",
		},
		{
			name: "href param verify",
			msg: domain.Message{
				HTML: `<a href="https://s/v?verify=8820">link</a>`,
			},
			wantCode:   "8820",
			wantOrigin: domain.OriginHrefParam,
			wantDetail: "verify",
		},
		{
			name: "href digits without known param",
			msg: domain.Message{
				HTML: `<a href="https://x/confirm/55123/done">confirm</a>`,
			},
			wantCode:   "55123",
			wantOrigin: domain.OriginHrefDigits,
		},
		{
			name:       "subject line",
			msg:        domain.Message{Subject: "Your passcode 9081 is ready"},
			wantCode:   "9081",
			wantOrigin: domain.OriginSubject,
		},
		{
			name: "data attribute",
			msg: domain.Message{
				HTML: `<div data-code="55512">tap to reveal</div>`,
			},
			wantCode:   "55512",
			wantOrigin: domain.OriginAttribute,
			wantDetail: "data-code",
		},
		{
			name: "meta refresh content is caught by the attribute scan",
			msg: domain.Message{
				HTML: `<meta http-equiv="refresh" content="0; url=https://ex.com/activate/77881">`,
			},
			wantCode:   "77881",
			wantOrigin: domain.OriginAttribute,
			wantDetail: "content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(&tt.msg)
			require.True(t, res.Found())
			assert.Equal(t, tt.wantCode, res.Code)
			assert.Equal(t, tt.wantOrigin, res.Origin)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, res.Detail)
			}
		})
	}
}

func TestExtractCandidateBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantCode string
	}{
		{"three digits rejected", "code 123 here", ""},
		{"nine digits rejected", "ref 123456789 end", ""},
		{"four digits accepted", "code 1234 here", "1234"},
		{"eight digits accepted", "code 12345678 here", "12345678"},
		{"digits glued to letters rejected", "order ab1234cd", ""},
		{"digit run inside longer run rejected", "id 1234567890123", ""},
		{"punctuation is a boundary", "your code: (4821).", "4821"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(&domain.Message{Text: tt.text})
			assert.Equal(t, tt.wantCode, res.Code)
			if tt.wantCode == "" {
				assert.Equal(t, domain.OriginNone, res.Origin)
			}
		})
	}
}

func TestExtractNoMatchDiagnostics(t *testing.T) {
	msg := domain.Message{
		Text:    "no numbers here",
		HTML:    `<p>still nothing</p><a href="https://x/a">one</a><a href="https://x/b">two</a>`,
		Subject: "hello",
	}
	res := Extract(&msg)

	assert.False(t, res.Found())
	assert.Equal(t, domain.OriginNone, res.Origin)
	assert.Contains(t, res.Detail, "text_len=15")
	assert.Contains(t, res.Detail, "hrefs=2")
	assert.Contains(t, res.Detail, "subject_len=5")
}

func TestExtractMalformedHTML(t *testing.T) {
	// The tolerant parser must not panic and must degrade to "no match".
	msg := domain.Message{HTML: "<div<<a href='><<p>>>"}
	res := Extract(&msg)

	assert.False(t, res.Found())
	assert.Equal(t, domain.OriginNone, res.Origin)
}

func TestExtractScriptTextIsNotVisible(t *testing.T) {
	msg := domain.Message{HTML: `<script>var x = 987654;</script><p>check your phone</p>`}
	res := Extract(&msg)

	// The digits live in script source, which step 2 must not surface.
	// The attribute walk does not see them either (they are node text).
	assert.False(t, res.Found())
}

func TestVisibleTextFlattening(t *testing.T) {
	doc := parseHTML(`<div><p>first</p><p>second</p><span>third</span></div>`)
	require.NotNil(t, doc)

	text := VisibleText(doc)
	lines := strings.Split(text, "\n")
	assert.Equal(t, []string{"first", "second", "third"}, lines)
}
