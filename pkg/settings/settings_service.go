package settings

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	CodeExpiry   = 10 * time.Minute
	apiKeyPrefix = "n8n_"
)

var (
	ErrInvalidWarningLimit = errors.New("warning limit must be between 1 and 99")
	ErrInvalidPhone        = errors.New("phone must use the international format, e.g. +5511999999999")
	ErrPhoneRequired       = errors.New("register a phone number first")
	ErrInvalidCode         = errors.New("invalid or expired verification code")
)

var phonePattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

type Service interface {
	GetSettings(ctx context.Context) (Settings, error)
	// FindSettings returns found=false when the user never stored settings.
	FindSettings(ctx context.Context, userId int) (Settings, bool, error)
	UpdateWarningLimit(ctx context.Context, percent int) (Settings, error)
	UpdateEmailNotifications(ctx context.Context, enabled bool) (Settings, error)
	UpdatePhone(ctx context.Context, phone string) (Settings, error)
	RequestPhoneVerification(ctx context.Context) (string, time.Time, error)
	UpdateWhatsappNotifications(ctx context.Context, enabled bool) (Settings, error)
	GenerateIntegrationApiKey(ctx context.Context) (string, error)

	FindOwnerByApiKey(ctx context.Context, apiKey string) (int, error)
	FindOwnerByVerifiedPhone(ctx context.Context, phone string) (int, error)
	IssueCodeForPhone(ctx context.Context, phone string) (string, time.Time, error)
	VerifyPhoneCode(ctx context.Context, phone string, code string) error
}

type ServiceImpl struct {
	repo  Repository
	clock utils.Clock
}

func NewSettingsService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo, clock: &utils.SystemClock{}}
}

func (s *ServiceImpl) GetSettings(ctx context.Context) (Settings, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.load(ctx, userId)
}

func (s *ServiceImpl) FindSettings(ctx context.Context, userId int) (Settings, bool, error) {
	return s.repo.Get(ctx, userId)
}

func (s *ServiceImpl) load(ctx context.Context, userId int) (Settings, error) {
	stored, found, err := s.repo.Get(ctx, userId)
	if err != nil {
		return Settings{}, err
	}
	if !found {
		return Defaults(userId), nil
	}
	return stored, nil
}

func (s *ServiceImpl) UpdateWarningLimit(ctx context.Context, percent int) (Settings, error) {
	if percent < 1 || percent > 99 {
		return Settings{}, ErrInvalidWarningLimit
	}
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.SetWarningLimit(ctx, userId, percent)
}

func (s *ServiceImpl) UpdateEmailNotifications(ctx context.Context, enabled bool) (Settings, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.SetEmailNotifications(ctx, userId, enabled)
}

// UpdatePhone stores a new phone, or removes it when phone is empty. Any previous verification is discarded.
func (s *ServiceImpl) UpdatePhone(ctx context.Context, phone string) (Settings, error) {
	phone = strings.TrimSpace(phone)
	if phone != "" && !phonePattern.MatchString(phone) {
		return Settings{}, ErrInvalidPhone
	}
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.SetPhone(ctx, userId, phone)
}

func (s *ServiceImpl) RequestPhoneVerification(ctx context.Context) (string, time.Time, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get current user: %w", err)
	}
	code, expiresAt, err := s.newCode()
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := s.repo.StoreCode(ctx, userId, code, expiresAt); err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return "", time.Time{}, ErrPhoneRequired
		}
		return "", time.Time{}, err
	}
	return code, expiresAt, nil
}

func (s *ServiceImpl) UpdateWhatsappNotifications(ctx context.Context, enabled bool) (Settings, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.SetWhatsappNotifications(ctx, userId, enabled)
}

func (s *ServiceImpl) GenerateIntegrationApiKey(ctx context.Context) (string, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	apiKey := apiKeyPrefix + hex.EncodeToString(b)
	if _, err := s.repo.SetIntegrationApiKey(ctx, userId, apiKey); err != nil {
		return "", err
	}
	return apiKey, nil
}

func (s *ServiceImpl) FindOwnerByApiKey(ctx context.Context, apiKey string) (int, error) {
	if apiKey == "" {
		return 0, ErrSettingsNotFound
	}
	settings, err := s.repo.FindByApiKey(ctx, apiKey)
	if err != nil {
		return 0, err
	}
	return settings.UserId, nil
}

func (s *ServiceImpl) FindOwnerByVerifiedPhone(ctx context.Context, phone string) (int, error) {
	if phone == "" {
		return 0, ErrSettingsNotFound
	}
	settings, err := s.repo.FindVerifiedByPhone(ctx, phone)
	if err != nil {
		return 0, err
	}
	return settings.UserId, nil
}

// IssueCodeForPhone stores a fresh verification code for whoever registered the phone.
func (s *ServiceImpl) IssueCodeForPhone(ctx context.Context, phone string) (string, time.Time, error) {
	code, expiresAt, err := s.newCode()
	if err != nil {
		return "", time.Time{}, err
	}
	userId, err := s.repo.StoreCodeForPhone(ctx, phone, code, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	log.Debugf("Verification code issued for user %d", userId)
	return code, expiresAt, nil
}

// VerifyPhoneCode marks the phone verified on the settings holding it with a matching, unexpired code.
func (s *ServiceImpl) VerifyPhoneCode(ctx context.Context, phone string, code string) error {
	if phone == "" || code == "" {
		return ErrInvalidCode
	}
	userId, err := s.repo.VerifyCode(ctx, phone, code, s.clock.Now())
	if errors.Is(err, ErrSettingsNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}
	log.Infof("Phone verified for user %d", userId)
	return nil
}

func (s *ServiceImpl) newCode() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(899_999))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100_000), s.clock.Now().Add(CodeExpiry), nil
}
