package user

import "time"

type User struct {
	Id              int
	Uid             string
	Name            string
	Email           string
	PasswordHash    string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
}

func (u User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// VerificationToken is a one-time token emailed on registration; Identifier is the email it was issued for.
type VerificationToken struct {
	Identifier string
	Token      string
	Expires    time.Time
}
