package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/event_bus"
	"github.com/budgetwatch/budgetwatch/pkg/alert"
	"github.com/budgetwatch/budgetwatch/pkg/email"
	"github.com/budgetwatch/budgetwatch/pkg/settings"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/budgetwatch/budgetwatch/pkg/whatsapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct{}

func (stubUsers) GetUser(ctx context.Context, id int) (user.User, error) {
	if id != 1 {
		return user.User{}, user.ErrUserNotFound
	}
	return user.User{Id: 1, Email: "ana@example.com"}, nil
}

type stubSettings struct {
	settings *settings.Settings
}

func (s stubSettings) FindSettings(ctx context.Context, userId int) (settings.Settings, bool, error) {
	if s.settings == nil {
		return settings.Settings{}, false, nil
	}
	return *s.settings, true, nil
}

type sentMail struct {
	to, subject, message string
	kind                 email.Kind
}

type stubMailer struct {
	sent []sentMail
	err  error
}

func (s *stubMailer) SendNotificationEmail(ctx context.Context, to string, subject string, message string, kind email.Kind) error {
	s.sent = append(s.sent, sentMail{to, subject, message, kind})
	return s.err
}

var warning = event_bus.AlertCreated{Id: 3, UserId: 1, Type: string(alert.LimitWarning), Message: "90% reached", TriggeredAt: time.Now()}

func TestNotifier_Notify(t *testing.T) {
	t.Run("should email by default when no settings are stored", func(t *testing.T) {
		mailer := &stubMailer{}
		wa := &whatsapp.StubClient{}
		notifier := NewNotifier(stubUsers{}, stubSettings{}, mailer, wa)

		err := notifier.Notify(context.Background(), warning)

		require.NoError(t, err)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "ana@example.com", mailer.sent[0].to)
		assert.Equal(t, email.KindWarning, mailer.sent[0].kind)
		assert.Empty(t, wa.Messages())
	})

	t.Run("should send whatsapp only to a verified phone", func(t *testing.T) {
		s := settings.Defaults(1)
		s.EmailNotificationsEnabled = false
		s.WhatsappNotificationsEnabled = true
		s.Phone = "+5511999999999"
		mailer := &stubMailer{}
		wa := &whatsapp.StubClient{}
		notifier := NewNotifier(stubUsers{}, stubSettings{&s}, mailer, wa)

		require.NoError(t, notifier.Notify(context.Background(), warning))
		assert.Empty(t, wa.Messages())

		s.PhoneVerified = true
		notifier = NewNotifier(stubUsers{}, stubSettings{&s}, mailer, wa)
		require.NoError(t, notifier.Notify(context.Background(), warning))

		messages := wa.Messages()
		require.Len(t, messages, 1)
		assert.Equal(t, "+5511999999999", messages[0].Phone)
		assert.Contains(t, messages[0].Text, "90% reached")
		assert.Empty(t, mailer.sent)
	})

	t.Run("should try every channel and join errors", func(t *testing.T) {
		s := settings.Defaults(1)
		s.WhatsappNotificationsEnabled = true
		s.PhoneVerified = true
		s.Phone = "+5511999999999"
		mailer := &stubMailer{err: email.ErrNotConfigured}
		wa := &whatsapp.StubClient{Err: errors.New("offline")}
		notifier := NewNotifier(stubUsers{}, stubSettings{&s}, mailer, wa)

		err := notifier.Notify(context.Background(), warning)

		assert.ErrorIs(t, err, email.ErrNotConfigured)
		assert.ErrorContains(t, err, "whatsapp: offline")
	})
}

func TestNotifier_Subscribe(t *testing.T) {
	t.Run("should deliver in background and never fail the publisher", func(t *testing.T) {
		bus := event_bus.NewEventBus()
		mailer := &stubMailer{err: errors.New("smtp down")}
		notifier := NewNotifier(stubUsers{}, stubSettings{}, mailer, &whatsapp.StubClient{})
		notifier.Subscribe(bus)

		err := bus.Publish(event_bus.NewEvent(context.Background(), event_bus.AlertCreatedEvent, warning))
		notifier.Wait()

		assert.NoError(t, err)
		assert.Len(t, mailer.sent, 1)
	})

	t.Run("should keep sending after the request context is cancelled", func(t *testing.T) {
		bus := event_bus.NewEventBus()
		mailer := &stubMailer{}
		notifier := NewNotifier(stubUsers{}, stubSettings{}, mailer, &whatsapp.StubClient{})
		release := make(chan struct{})
		notifier.dispatch = func(task func()) {
			notifier.wg.Add(1)
			go func() {
				defer notifier.wg.Done()
				<-release
				task()
			}()
		}
		notifier.Subscribe(bus)
		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, bus.Publish(event_bus.NewEvent(ctx, event_bus.AlertCreatedEvent, warning)))
		cancel()
		close(release)
		notifier.Wait()

		assert.Len(t, mailer.sent, 1)
	})
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		alertType alert.Type
		subject   string
		kind      email.Kind
	}{
		{alert.LimitWarning, "Spending limit warning", email.KindWarning},
		{alert.Critical, "Critical budget alert", email.KindCritical},
		{alert.Info, "Notification", email.KindInfo},
	}
	for _, tt := range tests {
		subject, kind := describe(tt.alertType)
		assert.Equal(t, tt.subject, subject, tt.alertType)
		assert.Equal(t, tt.kind, kind, tt.alertType)
	}
}
