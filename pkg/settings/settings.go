package settings

import "time"

const DefaultWarningLimitPercent = 90

type Settings struct {
	UserId                       int
	WarningLimitPercent          int
	EmailNotificationsEnabled    bool
	Phone                        string
	PhoneVerified                bool
	WhatsappNotificationsEnabled bool
	VerificationCode             string
	VerificationCodeExpiresAt    *time.Time
	IntegrationApiKey            string
	UpdatedAt                    time.Time
}

// Defaults returns the settings a user has before storing any.
func Defaults(userId int) Settings {
	return Settings{
		UserId:                    userId,
		WarningLimitPercent:       DefaultWarningLimitPercent,
		EmailNotificationsEnabled: true,
	}
}
