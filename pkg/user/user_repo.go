package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")
var ErrTokenNotFound = errors.New("verification token not found")

const uniqueViolation = "23505"

type Repo interface {
	// CreateUser returns ErrEmailTaken when the email is already registered.
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	MarkEmailVerified(ctx context.Context, email string, verifiedAt time.Time) error
	StoreVerificationToken(ctx context.Context, token VerificationToken) error
	FindVerificationToken(ctx context.Context, token string) (VerificationToken, error)
	DeleteVerificationToken(ctx context.Context, identifier string, token string) error
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const selectUser = `SELECT id, uid, name, email, password_hash, email_verified_at, created_at FROM users`

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.Id,
		&user.Uid,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.EmailVerifiedAt,
		&user.CreatedAt,
	)
	return user, err
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	query := `INSERT INTO users (uid, name, email, password_hash, email_verified_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query,
		user.Uid,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.EmailVerifiedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			log.Debugf("email already registered: %s", user.Email)
			return 0, ErrEmailTaken
		}
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	user, err := scanUser(u.db.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with id %d not found", id)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	user, err := scanUser(u.db.QueryRow(ctx, selectUser+` WHERE uid = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Infof("user with uid %s not found", uid)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByEmail(ctx context.Context, email string) (User, error) {
	user, err := scanUser(u.db.QueryRow(ctx, selectUser+` WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user by email: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) MarkEmailVerified(ctx context.Context, email string, verifiedAt time.Time) error {
	result, err := u.db.Exec(ctx, `UPDATE users SET email_verified_at = $1 WHERE email = $2`, verifiedAt, email)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (u *UserRepoImpl) StoreVerificationToken(ctx context.Context, token VerificationToken) error {
	query := `INSERT INTO verification_token (identifier, token, expires) VALUES ($1, $2, $3)`
	_, err := u.db.Exec(ctx, query, token.Identifier, token.Token, token.Expires)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (u *UserRepoImpl) FindVerificationToken(ctx context.Context, token string) (VerificationToken, error) {
	query := `SELECT identifier, token, expires FROM verification_token WHERE token = $1`
	var result VerificationToken
	err := u.db.QueryRow(ctx, query, token).Scan(&result.Identifier, &result.Token, &result.Expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return VerificationToken{}, ErrTokenNotFound
	} else if err != nil {
		err := fmt.Errorf("failed to find verification token: %w", err)
		log.Error(err)
		return VerificationToken{}, err
	}
	return result, nil
}

func (u *UserRepoImpl) DeleteVerificationToken(ctx context.Context, identifier string, token string) error {
	_, err := u.db.Exec(ctx, `DELETE FROM verification_token WHERE identifier = $1 AND token = $2`, identifier, token)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
