package settings

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = user.WithUser(context.Background(), user.User{Id: 1})

var settingsRepoStub = NewStubSettingsRepo()

var service *ServiceImpl
var clock *utils.MockClock

func setup(t *testing.T) func() {
	clock = &utils.MockClock{FixedNow: time.Date(2025, time.May, 10, 9, 0, 0, 0, time.UTC)}
	service = &ServiceImpl{repo: settingsRepoStub, clock: clock}
	return func() {
		t.Log("Teardown after test")
		settingsRepoStub.Cleanup()
	}
}

func TestServiceImpl_GetSettings(t *testing.T) {
	t.Run("should return defaults when nothing is stored", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		settings, err := service.GetSettings(ctx)

		require.NoError(t, err)
		assert.Equal(t, 90, settings.WarningLimitPercent)
		assert.True(t, settings.EmailNotificationsEnabled)
		assert.False(t, settings.WhatsappNotificationsEnabled)
		_, found, _ := service.FindSettings(ctx, 1)
		assert.False(t, found)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.GetSettings(context.Background())

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_UpdateWarningLimit(t *testing.T) {
	tests := []struct {
		percent int
		valid   bool
	}{
		{0, false},
		{1, true},
		{75, true},
		{99, true},
		{100, false},
	}
	for _, tt := range tests {
		teardown := setup(t)

		settings, err := service.UpdateWarningLimit(ctx, tt.percent)

		if tt.valid {
			require.NoError(t, err)
			assert.Equal(t, tt.percent, settings.WarningLimitPercent)
			assert.True(t, settings.EmailNotificationsEnabled, "other fields keep defaults on first upsert")
		} else {
			assert.ErrorIs(t, err, ErrInvalidWarningLimit)
		}
		teardown()
	}
}

func TestServiceImpl_UpdatePhone(t *testing.T) {
	t.Run("should reject non E.164 numbers", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		for _, phone := range []string{"11999999999", "+0123456789", "+12345", "+55 11 99999 9999"} {
			_, err := service.UpdatePhone(ctx, phone)
			assert.ErrorIs(t, err, ErrInvalidPhone, phone)
		}
	})

	t.Run("should reset verification when phone changes", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := service.UpdatePhone(ctx, "+5511999999999")
		require.NoError(t, err)
		code, _, err := service.RequestPhoneVerification(ctx)
		require.NoError(t, err)
		require.NoError(t, service.VerifyPhoneCode(ctx, "+5511999999999", code))

		// when
		settings, err := service.UpdatePhone(ctx, "+5511888888888")

		// then
		require.NoError(t, err)
		assert.False(t, settings.PhoneVerified)
		assert.Empty(t, settings.VerificationCode)
	})

	t.Run("should remove phone when empty", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, _ = service.UpdatePhone(ctx, "+5511999999999")
		settings, err := service.UpdatePhone(ctx, "")

		require.NoError(t, err)
		assert.Empty(t, settings.Phone)
	})
}

func TestServiceImpl_RequestPhoneVerification(t *testing.T) {
	t.Run("should require a phone", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, _, err := service.RequestPhoneVerification(ctx)

		assert.ErrorIs(t, err, ErrPhoneRequired)
	})

	t.Run("should issue a six digit code valid for ten minutes", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		_, _ = service.UpdatePhone(ctx, "+5511999999999")

		code, expiresAt, err := service.RequestPhoneVerification(ctx)

		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.Less(t, code, "999999")
		assert.Equal(t, clock.Now().Add(10*time.Minute), expiresAt)
	})
}

func TestServiceImpl_VerifyPhoneCode(t *testing.T) {
	t.Run("should reject wrong and expired codes", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		_, _ = service.UpdatePhone(ctx, "+5511999999999")
		code, _, _ := service.IssueCodeForPhone(ctx, "+5511999999999")

		assert.ErrorIs(t, service.VerifyPhoneCode(ctx, "+5511999999999", "000000"), ErrInvalidCode)
		assert.ErrorIs(t, service.VerifyPhoneCode(ctx, "+5511000000000", code), ErrInvalidCode)

		clock.Advance(11 * time.Minute)
		assert.ErrorIs(t, service.VerifyPhoneCode(ctx, "+5511999999999", code), ErrInvalidCode)
	})

	t.Run("should verify the phone and allow owner lookup", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		_, _ = service.UpdatePhone(ctx, "+5511999999999")
		_, err := service.FindOwnerByVerifiedPhone(ctx, "+5511999999999")
		assert.ErrorIs(t, err, ErrSettingsNotFound)

		code, _, err := service.IssueCodeForPhone(ctx, "+5511999999999")
		require.NoError(t, err)
		require.NoError(t, service.VerifyPhoneCode(ctx, "+5511999999999", code))

		owner, err := service.FindOwnerByVerifiedPhone(ctx, "+5511999999999")
		require.NoError(t, err)
		assert.Equal(t, 1, owner)
		settings, _ := service.GetSettings(ctx)
		assert.Empty(t, settings.VerificationCode)
		assert.Nil(t, settings.VerificationCodeExpiresAt)
	})

	t.Run("should not issue a code for an unknown phone", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, _, err := service.IssueCodeForPhone(ctx, "+5511999999999")

		assert.ErrorIs(t, err, ErrSettingsNotFound)
	})
}

func TestServiceImpl_GenerateIntegrationApiKey(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// when
	first, err := service.GenerateIntegrationApiKey(ctx)
	require.NoError(t, err)
	second, err := service.GenerateIntegrationApiKey(ctx)
	require.NoError(t, err)

	// then
	assert.True(t, strings.HasPrefix(second, "n8n_"))
	assert.Len(t, second, 4+48)
	assert.NotEqual(t, first, second)

	_, err = service.FindOwnerByApiKey(ctx, first)
	assert.ErrorIs(t, err, ErrSettingsNotFound)
	owner, err := service.FindOwnerByApiKey(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, owner)
}

func TestServiceImpl_VerifyPhoneCode_SharedPhone(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// given two accounts with the same phone, the second updated after the first got its code
	other := user.WithUser(context.Background(), user.User{Id: 2})
	_, err := service.UpdatePhone(ctx, "+5511999999999")
	require.NoError(t, err)
	_, err = service.UpdatePhone(other, "+5511999999999")
	require.NoError(t, err)
	code, _, err := service.RequestPhoneVerification(ctx)
	require.NoError(t, err)
	otherCode, _, err := service.RequestPhoneVerification(other)
	require.NoError(t, err)
	_, err = service.UpdateWarningLimit(other, 80)
	require.NoError(t, err)

	// when
	err = service.VerifyPhoneCode(ctx, "+5511999999999", code)

	// then
	require.NoError(t, err)
	owner, err := service.FindOwnerByVerifiedPhone(ctx, "+5511999999999")
	require.NoError(t, err)
	assert.Equal(t, 1, owner)
	otherSettings, _, _ := service.FindSettings(ctx, 2)
	assert.False(t, otherSettings.PhoneVerified)
	assert.Equal(t, otherCode, otherSettings.VerificationCode)
}

func TestServiceImpl_ChangesKeepOtherSettings(t *testing.T) {
	t.Run("toggling notifications keeps a completed verification", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		_, _ = service.UpdatePhone(ctx, "+5511999999999")
		code, _, err := service.IssueCodeForPhone(ctx, "+5511999999999")
		require.NoError(t, err)
		require.NoError(t, service.VerifyPhoneCode(ctx, "+5511999999999", code))

		settings, err := service.UpdateEmailNotifications(ctx, false)

		require.NoError(t, err)
		assert.False(t, settings.EmailNotificationsEnabled)
		assert.True(t, settings.PhoneVerified)
		assert.Empty(t, settings.VerificationCode)
	})

	t.Run("issuing a code keeps the other columns", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		_, _ = service.UpdatePhone(ctx, "+5511999999999")
		_, _ = service.UpdateWarningLimit(ctx, 60)
		_, _ = service.UpdateWhatsappNotifications(ctx, true)

		_, _, err := service.IssueCodeForPhone(ctx, "+5511999999999")

		require.NoError(t, err)
		settings, _ := service.GetSettings(ctx)
		assert.Equal(t, "+5511999999999", settings.Phone)
		assert.Equal(t, 60, settings.WarningLimitPercent)
		assert.True(t, settings.WhatsappNotificationsEnabled)
		assert.NotEmpty(t, settings.VerificationCode)
	})
}
