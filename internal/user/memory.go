package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps users in process memory. It backs DB_DRIVER=memory for
// local development and the handler tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[uuid.UUID]*User), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}

	prepareNew(u, s.now())
	s.users[u.ID] = clone(u)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID, opts ...ReadOption) (*User, error) {
	return s.find(applyReadOptions(opts), func(u *User) bool { return u.ID == id })
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string, opts ...ReadOption) (*User, error) {
	return s.find(applyReadOptions(opts), func(u *User) bool { return u.Email == email })
}

func (s *MemoryStore) GetByResetOTP(_ context.Context, otp int, now time.Time, opts ...ReadOption) (*User, error) {
	return s.find(applyReadOptions(opts), func(u *User) bool {
		return u.ResetPasswordOTP != nil && *u.ResetPasswordOTP == otp &&
			u.ResetPasswordOTPExpiry != nil && u.ResetPasswordOTPExpiry.After(now)
	})
}

func (s *MemoryStore) Save(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return ErrDuplicateEmail
		}
	}

	u.UpdatedAt = s.now()
	stored := clone(u)
	stored.CreatedAt = existing.CreatedAt
	if stored.PasswordHash == "" {
		stored.PasswordHash = existing.PasswordHash
	}
	s.users[u.ID] = stored
	return nil
}

func (s *MemoryStore) find(o readOptions, match func(*User) bool) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			c := clone(u)
			if !o.withPassword {
				c.PasswordHash = ""
			}
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func clone(u *User) *User {
	c := *u
	if u.Avatar != nil {
		a := *u.Avatar
		c.Avatar = &a
	}
	c.OTP = clonePtr(u.OTP)
	c.OTPExpiry = clonePtr(u.OTPExpiry)
	c.ResetPasswordOTP = clonePtr(u.ResetPasswordOTP)
	c.ResetPasswordOTPExpiry = clonePtr(u.ResetPasswordOTPExpiry)
	c.Tasks = append(make([]Task, 0, len(u.Tasks)), u.Tasks...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
