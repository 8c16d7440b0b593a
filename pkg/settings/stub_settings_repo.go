package settings

import (
	"context"
	"sync"
	"time"
)

type StubSettingsRepo struct {
	mu       sync.RWMutex
	settings map[int]Settings
	// version orders writes like updated_at does in the database
	version map[int]int64
	seq     int64
	// Err, when set, is returned by every call.
	Err error
}

func NewStubSettingsRepo() *StubSettingsRepo {
	return &StubSettingsRepo{settings: map[int]Settings{}, version: map[int]int64{}}
}

// Seed stores settings as given, replacing any previous row of the user.
func (s *StubSettingsRepo) Seed(ctx context.Context, settings Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(settings)
	return settings, nil
}

// store must be called with mu held.
func (s *StubSettingsRepo) store(settings Settings) Settings {
	s.seq++
	settings.UpdatedAt = time.Now()
	s.settings[settings.UserId] = settings
	s.version[settings.UserId] = s.seq
	return settings
}

func (s *StubSettingsRepo) Get(ctx context.Context, userId int) (Settings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return Settings{}, false, s.Err
	}
	stored, ok := s.settings[userId]
	return stored, ok, nil
}

func (s *StubSettingsRepo) change(userId int, apply func(settings *Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Settings{}, s.Err
	}
	current, ok := s.settings[userId]
	if !ok {
		current = Defaults(userId)
	}
	apply(&current)
	return s.store(current), nil
}

func (s *StubSettingsRepo) SetWarningLimit(ctx context.Context, userId int, percent int) (Settings, error) {
	return s.change(userId, func(settings *Settings) { settings.WarningLimitPercent = percent })
}

func (s *StubSettingsRepo) SetEmailNotifications(ctx context.Context, userId int, enabled bool) (Settings, error) {
	return s.change(userId, func(settings *Settings) { settings.EmailNotificationsEnabled = enabled })
}

func (s *StubSettingsRepo) SetWhatsappNotifications(ctx context.Context, userId int, enabled bool) (Settings, error) {
	return s.change(userId, func(settings *Settings) { settings.WhatsappNotificationsEnabled = enabled })
}

func (s *StubSettingsRepo) SetPhone(ctx context.Context, userId int, phone string) (Settings, error) {
	return s.change(userId, func(settings *Settings) {
		settings.Phone = phone
		settings.PhoneVerified = false
		settings.VerificationCode = ""
		settings.VerificationCodeExpiresAt = nil
	})
}

func (s *StubSettingsRepo) SetIntegrationApiKey(ctx context.Context, userId int, apiKey string) (Settings, error) {
	return s.change(userId, func(settings *Settings) { settings.IntegrationApiKey = apiKey })
}

func (s *StubSettingsRepo) StoreCode(ctx context.Context, userId int, code string, expiresAt time.Time) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Settings{}, s.Err
	}
	current, ok := s.settings[userId]
	if !ok || current.Phone == "" {
		return Settings{}, ErrSettingsNotFound
	}
	current.VerificationCode = code
	current.VerificationCodeExpiresAt = &expiresAt
	return s.store(current), nil
}

// latest returns the most recently written settings matching, mirroring ORDER BY updated_at DESC.
// Must be called with mu held.
func (s *StubSettingsRepo) latest(matches func(settings Settings) bool) (Settings, bool) {
	var found Settings
	var foundVersion int64 = -1
	for userId, stored := range s.settings {
		if matches(stored) && s.version[userId] > foundVersion {
			found, foundVersion = stored, s.version[userId]
		}
	}
	return found, foundVersion >= 0
}

func (s *StubSettingsRepo) StoreCodeForPhone(ctx context.Context, phone string, code string, expiresAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	current, ok := s.latest(func(settings Settings) bool { return phone != "" && settings.Phone == phone })
	if !ok {
		return 0, ErrSettingsNotFound
	}
	current.VerificationCode = code
	current.VerificationCodeExpiresAt = &expiresAt
	return s.store(current).UserId, nil
}

func (s *StubSettingsRepo) VerifyCode(ctx context.Context, phone string, code string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	current, ok := s.latest(func(settings Settings) bool {
		return phone != "" && settings.Phone == phone &&
			code != "" && settings.VerificationCode == code &&
			settings.VerificationCodeExpiresAt != nil && settings.VerificationCodeExpiresAt.After(now)
	})
	if !ok {
		return 0, ErrSettingsNotFound
	}
	current.PhoneVerified = true
	current.VerificationCode = ""
	current.VerificationCodeExpiresAt = nil
	return s.store(current).UserId, nil
}

func (s *StubSettingsRepo) FindByApiKey(ctx context.Context, apiKey string) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return Settings{}, s.Err
	}
	found, ok := s.latest(func(settings Settings) bool {
		return apiKey != "" && settings.IntegrationApiKey == apiKey
	})
	if !ok {
		return Settings{}, ErrSettingsNotFound
	}
	return found, nil
}

func (s *StubSettingsRepo) FindVerifiedByPhone(ctx context.Context, phone string) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return Settings{}, s.Err
	}
	found, ok := s.latest(func(settings Settings) bool {
		return phone != "" && settings.Phone == phone && settings.PhoneVerified
	})
	if !ok {
		return Settings{}, ErrSettingsNotFound
	}
	return found, nil
}

func (s *StubSettingsRepo) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = map[int]Settings{}
	s.version = map[int]int64{}
	s.seq = 0
	s.Err = nil
}

var _ Repository = (*StubSettingsRepo)(nil)
