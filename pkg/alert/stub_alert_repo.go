package alert

import (
	"context"
	"sort"
	"sync"
	"time"
)

type StubAlertRepo struct {
	mu     sync.Mutex
	nextId int
	alerts map[int]Alert
	// Err, when set, is returned by every call.
	Err error
}

func NewStubAlertRepo() *StubAlertRepo {
	return &StubAlertRepo{alerts: map[int]Alert{}}
}

func (s *StubAlertRepo) Create(ctx context.Context, userId int, alert Alert) (Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Alert{}, s.Err
	}
	return s.store(userId, alert), nil
}

func (s *StubAlertRepo) store(userId int, alert Alert) Alert {
	s.nextId++
	alert.Id = s.nextId
	alert.UserId = userId
	alert.Read = false
	s.alerts[alert.Id] = alert
	return alert
}

func (s *StubAlertRepo) CreateIfNoRecentUnread(ctx context.Context, userId int, alert Alert, since time.Time) (Alert, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Alert{}, false, s.Err
	}
	for _, stored := range s.alerts {
		if stored.UserId == userId && stored.Type == alert.Type && !stored.Read && !stored.TriggeredAt.Before(since) {
			return Alert{}, false, nil
		}
	}
	return s.store(userId, alert), true, nil
}

func (s *StubAlertRepo) List(ctx context.Context, userId int, limit int) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	alerts := make([]Alert, 0)
	for _, stored := range s.alerts {
		if stored.UserId == userId {
			alerts = append(alerts, stored)
		}
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].TriggeredAt.Equal(alerts[j].TriggeredAt) {
			return alerts[i].Id > alerts[j].Id
		}
		return alerts[i].TriggeredAt.After(alerts[j].TriggeredAt)
	})
	if len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

func (s *StubAlertRepo) MarkRead(ctx context.Context, userId int, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	stored, ok := s.alerts[id]
	if !ok || stored.UserId != userId {
		return ErrAlertNotFound
	}
	stored.Read = true
	s.alerts[id] = stored
	return nil
}

func (s *StubAlertRepo) MarkAllRead(ctx context.Context, userId int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var updated int64
	for id, stored := range s.alerts {
		if stored.UserId == userId && !stored.Read {
			stored.Read = true
			s.alerts[id] = stored
			updated++
		}
	}
	return updated, nil
}

func (s *StubAlertRepo) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId = 0
	s.alerts = map[int]Alert{}
	s.Err = nil
}
