package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/internal/validation"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const verificationTokenTtl = 24 * time.Hour

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid verification token")
	ErrTokenEmailMismatch = errors.New("verification link does not match the email")
	ErrTokenExpired       = errors.New("verification token expired")
)

type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

type Service interface {
	Register(ctx context.Context, request RegisterRequest) (User, error)
	VerifyEmail(ctx context.Context, token string, email string) error
	Login(ctx context.Context, email string, password string) (Session, error)
	GetCurrentUser(ctx context.Context) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
}

// Session is an issued login token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

type TokenIssuer interface {
	Issue(userUid string) (string, time.Time, error)
}

type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, to string, verificationUrl string, userName string) error
}

type UserServiceImpl struct {
	repo    Repo
	tokens  TokenIssuer
	mailer  VerificationMailer
	baseUrl string
	clock   utils.Clock
}

func NewUserService(repo Repo, tokens TokenIssuer, mailer VerificationMailer, baseUrl string) *UserServiceImpl {
	return &UserServiceImpl{repo: repo, tokens: tokens, mailer: mailer, baseUrl: baseUrl, clock: &utils.SystemClock{}}
}

func validateRegistration(request RegisterRequest) error {
	verr := validation.New()
	if len([]rune(strings.TrimSpace(request.Name))) < 2 {
		verr.Add("name", "Name must have at least 2 characters")
	}
	if _, err := mail.ParseAddress(request.Email); err != nil || strings.Contains(request.Email, "<") {
		verr.Add("email", "Invalid email")
	}
	if len(request.Password) < 6 {
		verr.Add("password", "Password must have at least 6 characters")
	}
	return verr.OrNil()
}

func (u *UserServiceImpl) Register(ctx context.Context, request RegisterRequest) (User, error) {
	request.Name = strings.TrimSpace(request.Name)
	request.Email = strings.TrimSpace(request.Email)
	if err := validateRegistration(request); err != nil {
		return User{}, err
	}

	_, err := u.repo.GetUserByEmail(ctx, request.Email)
	if err == nil {
		return User{}, ErrEmailTaken
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		Uid:          uuid.NewString(),
		Name:         request.Name,
		Email:        request.Email,
		PasswordHash: string(hash),
	}
	id, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.Id = id

	token, err := randomHex(32)
	if err != nil {
		return User{}, fmt.Errorf("failed to generate verification token: %w", err)
	}
	err = u.repo.StoreVerificationToken(ctx, VerificationToken{
		Identifier: user.Email,
		Token:      token,
		Expires:    u.clock.Now().Add(verificationTokenTtl),
	})
	if err != nil {
		return User{}, err
	}

	verificationUrl := fmt.Sprintf("%s/verify-email?token=%s&email=%s",
		strings.TrimSuffix(u.baseUrl, "/"), token, url.QueryEscape(user.Email))
	if err := u.mailer.SendVerificationEmail(ctx, user.Email, verificationUrl, user.Name); err != nil {
		log.Warnf("verification email not sent to %s, link: %s (%v)", user.Email, verificationUrl, err)
	}

	log.Infof("User registered: %s", user.Email)
	return user, nil
}

func (u *UserServiceImpl) VerifyEmail(ctx context.Context, token string, email string) error {
	if token == "" || email == "" {
		return ErrInvalidToken
	}
	stored, err := u.repo.FindVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	// the email in the link may come back with a different case
	if !strings.EqualFold(stored.Identifier, email) {
		return ErrTokenEmailMismatch
	}
	if stored.Expires.Before(u.clock.Now()) {
		return ErrTokenExpired
	}

	if err := u.repo.MarkEmailVerified(ctx, stored.Identifier, u.clock.Now()); err != nil {
		return err
	}
	return u.repo.DeleteVerificationToken(ctx, stored.Identifier, stored.Token)
}

func (u *UserServiceImpl) Login(ctx context.Context, email string, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := u.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if !user.IsEmailVerified() {
		return Session{}, ErrEmailNotVerified
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, expiresAt, err := u.tokens.Issue(user.Uid)
	if err != nil {
		return Session{}, err
	}
	log.Infof("User logged in: %s", user.Email)
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
