package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/event_bus"
	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	listLimit = 50
	// DedupWindow is how long an unread alert suppresses new alerts of the same type.
	DedupWindow = 24 * time.Hour
)

type Service interface {
	CreateAlert(ctx context.Context, alertType Type, message string, metadata map[string]any) (Alert, error)
	// CreateUnlessRecent creates the alert for userId unless an unread alert of the same
	// type was triggered within DedupWindow.
	CreateUnlessRecent(ctx context.Context, userId int, alertType Type, message string, metadata map[string]any) (Alert, bool, error)
	ListAlerts(ctx context.Context) ([]Alert, error)
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context) error
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewAlertService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus, clock: &utils.SystemClock{}}
}

func (s *ServiceImpl) CreateAlert(ctx context.Context, alertType Type, message string, metadata map[string]any) (Alert, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Alert{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if !alertType.IsValid() {
		return Alert{}, fmt.Errorf("invalid alert type %q", alertType)
	}
	created, err := s.repo.Create(ctx, userId, Alert{
		Type:        alertType,
		Message:     message,
		Metadata:    metadata,
		TriggeredAt: s.clock.Now(),
	})
	if err != nil {
		return Alert{}, err
	}
	s.publish(ctx, created)
	return created, nil
}

func (s *ServiceImpl) CreateUnlessRecent(ctx context.Context, userId int, alertType Type, message string, metadata map[string]any) (Alert, bool, error) {
	now := s.clock.Now()
	created, ok, err := s.repo.CreateIfNoRecentUnread(ctx, userId, Alert{
		Type:        alertType,
		Message:     message,
		Metadata:    metadata,
		TriggeredAt: now,
	}, now.Add(-DedupWindow))
	if err != nil || !ok {
		return Alert{}, false, err
	}
	log.Infof("%s alert %d created for user %d", alertType, created.Id, userId)
	s.publish(ctx, created)
	return created, true, nil
}

func (s *ServiceImpl) publish(ctx context.Context, alert Alert) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.AlertCreatedEvent, event_bus.AlertCreated{
		Id:          alert.Id,
		UserId:      alert.UserId,
		Type:        string(alert.Type),
		Message:     alert.Message,
		TriggeredAt: alert.TriggeredAt,
	}))
	if err != nil {
		log.Warnf("alert %d created but subscribers failed: %v", alert.Id, err)
	}
}

func (s *ServiceImpl) ListAlerts(ctx context.Context) ([]Alert, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId, listLimit)
}

func (s *ServiceImpl) MarkRead(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.MarkRead(ctx, userId, id)
}

func (s *ServiceImpl) MarkAllRead(ctx context.Context) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	updated, err := s.repo.MarkAllRead(ctx, userId)
	if err != nil {
		return err
	}
	log.Debugf("Marked %d alerts as read for user %d", updated, userId)
	return nil
}
