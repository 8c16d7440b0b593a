package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/event_bus"
	"github.com/budgetwatch/budgetwatch/pkg/alert"
	"github.com/budgetwatch/budgetwatch/pkg/email"
	"github.com/budgetwatch/budgetwatch/pkg/settings"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/budgetwatch/budgetwatch/pkg/whatsapp"
	log "github.com/sirupsen/logrus"
)

const sendTimeout = 30 * time.Second

type UserReader interface {
	GetUser(ctx context.Context, id int) (user.User, error)
}

type SettingsReader interface {
	FindSettings(ctx context.Context, userId int) (settings.Settings, bool, error)
}

type Mailer interface {
	SendNotificationEmail(ctx context.Context, to string, subject string, message string, kind email.Kind) error
}

// Notifier forwards created alerts to the user's enabled channels in the background.
type Notifier struct {
	users    UserReader
	settings SettingsReader
	mailer   Mailer
	whatsapp whatsapp.Client

	wg       sync.WaitGroup
	dispatch func(task func())
}

func NewNotifier(users UserReader, settings SettingsReader, mailer Mailer, whatsappClient whatsapp.Client) *Notifier {
	n := &Notifier{
		users:    users,
		settings: settings,
		mailer:   mailer,
		whatsapp: whatsappClient,
	}
	n.dispatch = func(task func()) {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			task()
		}()
	}
	return n
}

// Subscribe registers the notifier for alert.created events.
func (n *Notifier) Subscribe(bus *event_bus.EventBus) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.AlertCreatedEvent, func(e event_bus.EventT[event_bus.AlertCreated]) error {
		ctx := context.WithoutCancel(e.Context())
		created := e.Data
		n.dispatch(func() {
			ctx, cancel := context.WithTimeout(ctx, sendTimeout)
			defer cancel()
			if err := n.Notify(ctx, created); err != nil {
				log.Warnf("notification for alert %d not fully delivered: %v", created.Id, err)
			}
		})
		return nil
	})
}

// Wait blocks until in-flight notifications finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Notify sends the alert by email when enabled and by WhatsApp when enabled on a verified phone.
func (n *Notifier) Notify(ctx context.Context, created event_bus.AlertCreated) error {
	recipient, err := n.users.GetUser(ctx, created.UserId)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", created.UserId, err)
	}
	userSettings, found, err := n.settings.FindSettings(ctx, created.UserId)
	if err != nil {
		return fmt.Errorf("failed to load settings of user %d: %w", created.UserId, err)
	}
	if !found {
		userSettings = settings.Defaults(created.UserId)
	}

	subject, kind := describe(alert.Type(created.Type))
	var errs []error

	if userSettings.EmailNotificationsEnabled && recipient.Email != "" {
		if err := n.mailer.SendNotificationEmail(ctx, recipient.Email, subject, created.Message, kind); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	if userSettings.WhatsappNotificationsEnabled && userSettings.PhoneVerified && userSettings.Phone != "" {
		text := fmt.Sprintf("*%s*\n\n%s", subject, created.Message)
		if err := n.whatsapp.SendText(ctx, userSettings.Phone, text); err != nil {
			errs = append(errs, fmt.Errorf("whatsapp: %w", err))
		}
	}

	return errors.Join(errs...)
}

func describe(alertType alert.Type) (string, email.Kind) {
	switch alertType {
	case alert.LimitWarning:
		return "Spending limit warning", email.KindWarning
	case alert.Critical:
		return "Critical budget alert", email.KindCritical
	default:
		return "Notification", email.KindInfo
	}
}
