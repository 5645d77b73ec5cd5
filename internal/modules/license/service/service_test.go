package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/license/repository"
)

func newTestService(t *testing.T, required bool) *Service {
	t.Helper()
	repo, err := repository.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return New(repo, required)
}

func TestGenerateAndRedeemKey(t *testing.T) {
	svc := newTestService(t, true)

	key, err := svc.GenerateKey(7)
	require.NoError(t, err)
	assert.Len(t, key.Code, 16)
	assert.False(t, key.Redeemed())

	assert.False(t, svc.IsActive(42))

	sub, err := svc.Redeem(42, key.Code)
	require.NoError(t, err)
	assert.True(t, svc.IsActive(42))
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), sub.ExpiresAt, time.Minute)
}

func TestRedeemIsCaseInsensitive(t *testing.T) {
	svc := newTestService(t, true)

	key, err := svc.GenerateKey(1)
	require.NoError(t, err)

	_, err = svc.Redeem(42, " "+key.Code+" ")
	require.NoError(t, err)
}

func TestKeyRedeemsOnce(t *testing.T) {
	svc := newTestService(t, true)

	key, err := svc.GenerateKey(7)
	require.NoError(t, err)

	_, err = svc.Redeem(1, key.Code)
	require.NoError(t, err)

	_, err = svc.Redeem(2, key.Code)
	assert.Error(t, err)
	assert.False(t, svc.IsActive(2))
}

func TestRedeemExtendsActiveSubscription(t *testing.T) {
	svc := newTestService(t, true)

	first, err := svc.GenerateKey(10)
	require.NoError(t, err)
	second, err := svc.GenerateKey(5)
	require.NoError(t, err)

	sub1, err := svc.Redeem(42, first.Code)
	require.NoError(t, err)
	sub2, err := svc.Redeem(42, second.Code)
	require.NoError(t, err)

	// Second key stacks on top of the first expiry, not on now
	assert.WithinDuration(t, sub1.ExpiresAt.Add(5*24*time.Hour), sub2.ExpiresAt, time.Second)
}

func TestUnknownKey(t *testing.T) {
	svc := newTestService(t, true)

	_, err := svc.Redeem(42, "NOSUCHKEY1234567")
	assert.Error(t, err)
}

func TestLicenseNotRequired(t *testing.T) {
	svc := newTestService(t, false)
	assert.True(t, svc.IsActive(999))
}

func TestGenerateKeyRejectsNonPositiveDays(t *testing.T) {
	svc := newTestService(t, true)

	_, err := svc.GenerateKey(0)
	assert.Error(t, err)
}
