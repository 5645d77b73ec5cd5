package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountDomain "github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/domain"
	mailDomain "github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/domain"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/notify"
	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/poller/ledger"
	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/config"
)

type fakeSource struct {
	mu          sync.Mutex
	inboxes     map[string][]*mailDomain.Message
	failing     map[string]bool
	fetches     map[string]int
	deleted     []string
	attachments map[string][]byte
	attErr      map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		inboxes:     make(map[string][]*mailDomain.Message),
		failing:     make(map[string]bool),
		fetches:     make(map[string]int),
		attachments: make(map[string][]byte),
		attErr:      make(map[string]error),
	}
}

func (f *fakeSource) ListMessages(_ context.Context, account *accountDomain.Account) []*mailDomain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[account.Email]++
	if f.failing[account.Email] {
		return nil
	}
	return f.inboxes[account.Email]
}

func (f *fakeSource) DeleteMessage(_ context.Context, _ *accountDomain.Account, messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
}

func (f *fakeSource) FetchAttachment(_ context.Context, _ *accountDomain.Account, att mailDomain.Attachment) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.attErr[att.Filename]; err != nil {
		return nil, err
	}
	return f.attachments[att.Filename], nil
}

type sent struct {
	chatID   int64
	payload  string
	filename string
}

type fakeTransport struct {
	mu       sync.Mutex
	texts    []sent
	docs     []sent
	photos   []sent
	failText bool
	panicFor map[int64]bool
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicFor[chatID] {
		panic("transport imploded")
	}
	if f.failText {
		return errors.New("transport rejected send")
	}
	f.texts = append(f.texts, sent{chatID: chatID, payload: text})
	return nil
}

func (f *fakeTransport) SendDocument(_ context.Context, chatID int64, filename string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, sent{chatID: chatID, filename: filename})
	return nil
}

func (f *fakeTransport) SendPhoto(_ context.Context, chatID int64, filename string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sent{chatID: chatID, filename: filename})
	return nil
}

type fakeRegistry struct {
	accounts map[int64][]*accountDomain.Account
}

func (f *fakeRegistry) All() (map[int64][]*accountDomain.Account, error) {
	return f.accounts, nil
}

type fakeEntitlements struct {
	inactive map[int64]bool
}

func (f *fakeEntitlements) IsActive(chatID int64) bool {
	return !f.inactive[chatID]
}

func newTestService(source Source, registry Registry, entitlements Entitlements, transport Transport) *Service {
	cfg := &config.Config{PollInterval: 1}
	s := New(cfg, source, registry, entitlements, notify.New(true, false), ledger.New(0))
	s.SetTransport(transport)
	return s
}

func account(email string) *accountDomain.Account {
	return &accountDomain.Account{Email: email, Token: "tok-" + email}
}

func TestCycleDeliversExtractedCode(t *testing.T) {
	source := newFakeSource()
	source.inboxes["a@x.test"] = []*mailDomain.Message{
		{ID: "msg-1", Text: "Your code is 48213, expires soon"},
	}
	transport := &fakeTransport{}
	svc := newTestService(source, &fakeRegistry{accounts: map[int64][]*accountDomain.Account{
		7: {account("a@x.test")},
	}}, &fakeEntitlements{}, transport)

	svc.cycle()

	require.Len(t, transport.texts, 1)
	assert.Equal(t, int64(7), transport.texts[0].chatID)
	assert.Contains(t, transport.texts[0].payload, "48213")
	assert.Contains(t, transport.texts[0].payload, "origin: text")
	assert.Equal(t, 1, svc.SeenCount())
	assert.Equal(t, []string{"msg-1"}, source.deleted)

	// The same message reappearing in a later fetch is never re-notified
	// and the upstream delete stays at exactly one.
	svc.cycle()
	assert.Len(t, transport.texts, 1)
	assert.Equal(t, []string{"msg-1"}, source.deleted)
}

func TestCycleDeliversHrefParamCode(t *testing.T) {
	source := newFakeSource()
	source.inboxes["a@x.test"] = []*mailDomain.Message{
		{ID: "msg-2", HTML: `<a href="https://s/v?verify=8820">link</a>`},
	}
	transport := &fakeTransport{}
	svc := newTestService(source, &fakeRegistry{accounts: map[int64][]*accountDomain.Account{
		7: {account("a@x.test")},
	}}, &fakeEntitlements{}, transport)

	svc.cycle()

	require.Len(t, transport.texts, 1)
	assert.Contains(t, transport.texts[0].payload, "8820")
	assert.Contains(t, transport.texts[0].payload, "href_param:verify")
}

func TestFetchFailureDoesNotBlockOtherAccounts(t *testing.T) {
	source := newFakeSource()
	source.failing["broken@x.test"] = true
	source.inboxes["ok@x.test"] = []*mailDomain.Message{
		{ID: "msg-3", Text: "pin 7711"},
	}
	transport := &fakeTransport{}
	svc := newTestService(source, &fakeRegistry{accounts: map[int64][]*accountDomain.Account{
		1: {account("broken@x.test"), account("ok@x.test")},
	}}, &fakeEntitlements{}, transport)

	svc.cycle()

	require.Len(t, transport.texts, 1)
	assert.Contains(t, transport.texts[0].payload, "7711")
	assert.Equal(t, 1, source.fetches["broken@x.test"], "failing account was still polled")
}

func TestDeliveryFailureIsNotRetried(t *testing.T) {
	source := newFakeSource()
	source.inboxes["a@x.test"] = []*mailDomain.Message{
		{ID: "msg-4", Text: "code 5150"},
	}
	transport := &fakeTransport{failText: true}
	svc := newTestService(source, &fakeRegistry{accounts: map[int64][]*accountDomain.Account{
		2: {account("a@x.test")},
	}}, &fakeEntitlements{}, transport)

	svc.cycle()
	assert.Empty(t, transport.texts)
	assert.True(t, svc.ledger.Seen("msg-4"), "marked before delivery")

	// Transport recovers, but the message stays accepted-lost
	transport.failText = false
	svc.cycle()
	assert.Empty(t, transport.texts)
}

func TestInactiveSubscriptionSkipsFetch(t *testing.T) {
	source := newFakeSource()
	source.inboxes["lapsed@x.test"] = []*mailDomain.Message{
		{ID: "msg-5", Text: "code 9999"},
	}
	source.inboxes["live@x.test"] = []*mailDomain.Message{
		{ID: "msg-6", Text: "code 1111"},
	}
	transport := &fakeTransport{}
	svc := newTestService(source, &fakeRegistry{accounts: map[int64][]*accountDomain.Account{
		10: {account("lapsed@x.test")},
		11: {account("live@x.test")},
	}}, &fakeEntitlements{inactive: map[int64]bool{10: true}}, transport)

	svc.cycle()

	assert.Zero(t, source.fetches["lapsed@x.test"], "no upstream call for lapsed chat")
	require.Len(t, transport.texts, 1)
	assert.Equal(t, int64(11), transport.texts[0].chatID)
}

func TestMessageWithoutIDIsSkipped(t *testing.T) {
	source := newFakeSource()
	source.inboxes["a@x.test"] = []*mailDomain.Message{
		{Text: "code 2222"},
		{ID: "msg-7", Text: "code 3333"},
	}
	transport := &fakeTransport{}
	svc := newTestService(source, &fakeRegistry{accounts: map[int64][]*accountDomain.Account{
		3: {account("a@x.test")},
	}}, &fakeEntitlements{}, transport)

	svc.cycle()

	require.Len(t, transport.texts, 1)
	assert.Contains(t, transport.texts[0].payload, "3333")
}

func TestPanicInChatWorkerIsContained(t *testing.T) {
	source := newFakeSource()
	source.inboxes["doomed@x.test"] = []*mailDomain.Message{
		{ID: "msg-9", Text: "code 4242"},
	}
	source.inboxes["fine@x.test"] = []*mailDomain.Message{
		{ID: "msg-10", Text: "code 6060"},
	}
	transport := &fakeTransport{panicFor: map[int64]bool{20: true}}
	svc := newTestService(source, &fakeRegistry{accounts: map[int64][]*accountDomain.Account{
		20: {account("doomed@x.test")},
		21: {account("fine@x.test")},
	}}, &fakeEntitlements{}, transport)

	// The panicking chat worker must neither crash the cycle nor stop
	// the other chat from being served.
	require.NotPanics(t, svc.cycle)

	require.Len(t, transport.texts, 1)
	assert.Equal(t, int64(21), transport.texts[0].chatID)
	assert.Contains(t, transport.texts[0].payload, "6060")
	assert.Equal(t, uint64(1), svc.Cycles(), "cycle completed despite the panic")

	// The panicked message was marked before delivery, so a later cycle
	// with a healed transport does not replay it.
	transport.panicFor = nil
	svc.cycle()
	assert.Len(t, transport.texts, 1)
}

func TestAttachmentForwarding(t *testing.T) {
	source := newFakeSource()
	source.inboxes["a@x.test"] = []*mailDomain.Message{
		{
			ID:   "msg-8",
			Text: "see attachments",
			Attachments: []mailDomain.Attachment{
				{Filename: "photo.png"},
				{Filename: "broken.pdf"},
				{Filename: "report.pdf"},
			},
		},
	}
	source.attachments["photo.png"] = []byte{1, 2, 3}
	source.attachments["report.pdf"] = []byte{4, 5, 6}
	source.attErr["broken.pdf"] = errors.New("download failed")
	transport := &fakeTransport{}
	svc := newTestService(source, &fakeRegistry{accounts: map[int64][]*accountDomain.Account{
		4: {account("a@x.test")},
	}}, &fakeEntitlements{}, transport)

	svc.cycle()

	// One failed download never blocks the others
	require.Len(t, transport.photos, 1)
	assert.Equal(t, "photo.png", transport.photos[0].filename)
	require.Len(t, transport.docs, 1)
	assert.Equal(t, "report.pdf", transport.docs[0].filename)
}
