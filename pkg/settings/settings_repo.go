package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrSettingsNotFound = errors.New("settings not found")

// Repository writes touch only the columns of the operation at hand.
type Repository interface {
	// Get returns found=false when the user never stored settings.
	Get(ctx context.Context, userId int) (Settings, bool, error)
	SetWarningLimit(ctx context.Context, userId int, percent int) (Settings, error)
	SetEmailNotifications(ctx context.Context, userId int, enabled bool) (Settings, error)
	SetWhatsappNotifications(ctx context.Context, userId int, enabled bool) (Settings, error)
	// SetPhone stores the phone, or removes it when empty, and discards any verification state.
	SetPhone(ctx context.Context, userId int, phone string) (Settings, error)
	SetIntegrationApiKey(ctx context.Context, userId int, apiKey string) (Settings, error)
	// StoreCode sets the verification code of the user's registered phone.
	// Returns ErrSettingsNotFound when the user has no phone.
	StoreCode(ctx context.Context, userId int, code string, expiresAt time.Time) (Settings, error)
	// StoreCodeForPhone sets the code on the most recently updated settings holding phone and returns its owner.
	StoreCodeForPhone(ctx context.Context, phone string, code string, expiresAt time.Time) (int, error)
	// VerifyCode marks the phone verified on the settings holding phone whose code matches and
	// expires after now, clearing the code. Returns the owner or ErrSettingsNotFound.
	VerifyCode(ctx context.Context, phone string, code string, now time.Time) (int, error)
	FindByApiKey(ctx context.Context, apiKey string) (Settings, error)
	FindVerifiedByPhone(ctx context.Context, phone string) (Settings, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewSettingsRepo(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const settingsColumns = `user_id,
       warning_limit_percent,
       email_notifications_enabled,
       COALESCE(phone, ''),
       phone_verified,
       whatsapp_notifications_enabled,
       COALESCE(verification_code, ''),
       verification_code_expires_at,
       COALESCE(integration_api_key, ''),
       updated_at`

const selectSettings = `SELECT ` + settingsColumns + ` FROM user_settings`

func scanSettings(row pgx.Row) (Settings, error) {
	var s Settings
	err := row.Scan(
		&s.UserId,
		&s.WarningLimitPercent,
		&s.EmailNotificationsEnabled,
		&s.Phone,
		&s.PhoneVerified,
		&s.WhatsappNotificationsEnabled,
		&s.VerificationCode,
		&s.VerificationCodeExpiresAt,
		&s.IntegrationApiKey,
		&s.UpdatedAt,
	)
	return s, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int) (Settings, bool, error) {
	s, err := scanSettings(r.db.QueryRow(ctx, selectSettings+` WHERE user_id = $1`, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		err := fmt.Errorf("could not query settings: %w", err)
		log.Error(err)
		return Settings{}, false, err
	}
	return s, true, nil
}

// upsert inserts the row with column set to value, or updates only that column.
// extraSet lists further assignments applied on update.
func (r *RepositoryImpl) upsert(ctx context.Context, userId int, column string, value any, extraSet string) (Settings, error) {
	set := column + ` = EXCLUDED.` + column
	if extraSet != "" {
		set += `, ` + extraSet
	}
	query := `INSERT INTO user_settings (user_id, ` + column + `) VALUES ($1, $2)
			  ON CONFLICT (user_id) DO UPDATE SET ` + set + `, updated_at = now()
			  RETURNING ` + settingsColumns
	s, err := scanSettings(r.db.QueryRow(ctx, query, userId, value))
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Settings{}, err
	}
	return s, nil
}

func (r *RepositoryImpl) SetWarningLimit(ctx context.Context, userId int, percent int) (Settings, error) {
	return r.upsert(ctx, userId, "warning_limit_percent", percent, "")
}

func (r *RepositoryImpl) SetEmailNotifications(ctx context.Context, userId int, enabled bool) (Settings, error) {
	return r.upsert(ctx, userId, "email_notifications_enabled", enabled, "")
}

func (r *RepositoryImpl) SetWhatsappNotifications(ctx context.Context, userId int, enabled bool) (Settings, error) {
	return r.upsert(ctx, userId, "whatsapp_notifications_enabled", enabled, "")
}

func (r *RepositoryImpl) SetPhone(ctx context.Context, userId int, phone string) (Settings, error) {
	return r.upsert(ctx, userId, "phone", nullable(phone),
		`phone_verified = FALSE, verification_code = NULL, verification_code_expires_at = NULL`)
}

func (r *RepositoryImpl) SetIntegrationApiKey(ctx context.Context, userId int, apiKey string) (Settings, error) {
	return r.upsert(ctx, userId, "integration_api_key", nullable(apiKey), "")
}

func (r *RepositoryImpl) StoreCode(ctx context.Context, userId int, code string, expiresAt time.Time) (Settings, error) {
	query := `UPDATE user_settings
			  SET verification_code = $2, verification_code_expires_at = $3, updated_at = now()
			  WHERE user_id = $1 AND phone IS NOT NULL
			  RETURNING ` + settingsColumns
	s, err := scanSettings(r.db.QueryRow(ctx, query, userId, code, expiresAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, ErrSettingsNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Settings{}, err
	}
	return s, nil
}

func (r *RepositoryImpl) StoreCodeForPhone(ctx context.Context, phone string, code string, expiresAt time.Time) (int, error) {
	// phone is re-checked on the updated row in case it changed after the subquery read it
	query := `UPDATE user_settings
			  SET verification_code = $2, verification_code_expires_at = $3, updated_at = now()
			  WHERE phone = $1
			    AND user_id = (SELECT user_id FROM user_settings WHERE phone = $1
			                   ORDER BY updated_at DESC, user_id DESC LIMIT 1)
			  RETURNING user_id`
	return r.updateReturningOwner(ctx, query, phone, code, expiresAt)
}

func (r *RepositoryImpl) VerifyCode(ctx context.Context, phone string, code string, now time.Time) (int, error) {
	query := `UPDATE user_settings
			  SET phone_verified = TRUE, verification_code = NULL, verification_code_expires_at = NULL, updated_at = now()
			  WHERE phone = $1 AND verification_code = $2 AND verification_code_expires_at > $3
			    AND user_id = (SELECT user_id FROM user_settings
			                   WHERE phone = $1 AND verification_code = $2 AND verification_code_expires_at > $3
			                   ORDER BY updated_at DESC, user_id DESC LIMIT 1)
			  RETURNING user_id`
	return r.updateReturningOwner(ctx, query, phone, code, now)
}

func (r *RepositoryImpl) updateReturningOwner(ctx context.Context, query string, args ...any) (int, error) {
	var userId int
	err := r.db.QueryRow(ctx, query, args...).Scan(&userId)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrSettingsNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return 0, err
	}
	return userId, nil
}

func (r *RepositoryImpl) FindByApiKey(ctx context.Context, apiKey string) (Settings, error) {
	s, err := scanSettings(r.db.QueryRow(ctx, selectSettings+` WHERE integration_api_key = $1`, apiKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, ErrSettingsNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not query settings: %w", err)
		log.Error(err)
		return Settings{}, err
	}
	return s, nil
}

func (r *RepositoryImpl) FindVerifiedByPhone(ctx context.Context, phone string) (Settings, error) {
	return r.findOneByPhone(ctx, selectSettings+` WHERE phone = $1 AND phone_verified ORDER BY updated_at DESC LIMIT 1`, phone)
}

func (r *RepositoryImpl) findOneByPhone(ctx context.Context, query string, phone string) (Settings, error) {
	s, err := scanSettings(r.db.QueryRow(ctx, query, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, ErrSettingsNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not query settings: %w", err)
		log.Error(err)
		return Settings{}, err
	}
	return s, nil
}
