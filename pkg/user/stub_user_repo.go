package user

import (
	"context"
	"strings"
	"sync"
	"time"
)

type StubUserRepository struct {
	mu     sync.RWMutex
	nextId int
	data   map[int]User
	tokens map[string]VerificationToken
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{nextId: 0, data: map[int]User{}, tokens: map[string]VerificationToken{}}
}

func (s *StubUserRepository) CreateUser(ctx context.Context, user User) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.data {
		if stored.Email == user.Email {
			return 0, ErrEmailTaken
		}
	}
	s.nextId++
	user.Id = s.nextId
	s.data[s.nextId] = user
	return s.nextId, nil
}

func (s *StubUserRepository) GetUser(ctx context.Context, id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *StubUserRepository) GetUserByUid(ctx context.Context, uid string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.data {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *StubUserRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.data {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *StubUserRepository) MarkEmailVerified(ctx context.Context, email string, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, user := range s.data {
		if user.Email == email {
			user.EmailVerifiedAt = &verifiedAt
			s.data[id] = user
			return nil
		}
	}
	return ErrUserNotFound
}

func (s *StubUserRepository) StoreVerificationToken(ctx context.Context, token VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Token] = token
	return nil
}

func (s *StubUserRepository) FindVerificationToken(ctx context.Context, token string) (VerificationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.tokens[token]
	if !ok {
		return VerificationToken{}, ErrTokenNotFound
	}
	return found, nil
}

func (s *StubUserRepository) DeleteVerificationToken(ctx context.Context, identifier string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if found, ok := s.tokens[token]; ok && strings.EqualFold(found.Identifier, identifier) {
		delete(s.tokens, token)
	}
	return nil
}

// TokenFor returns the pending verification token issued for email, if any.
func (s *StubUserRepository) TokenFor(email string) (VerificationToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, token := range s.tokens {
		if token.Identifier == email {
			return token, true
		}
	}
	return VerificationToken{}, false
}
