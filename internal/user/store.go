package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Store persists users together with their embedded tasks. Reads leave
// PasswordHash empty unless WithPassword is passed. Save writes the whole
// user back; the password is only written when PasswordHash is set.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID, opts ...ReadOption) (*User, error)
	GetByEmail(ctx context.Context, email string, opts ...ReadOption) (*User, error)
	// GetByResetOTP finds a user whose reset OTP equals otp and expires after now
	GetByResetOTP(ctx context.Context, otp int, now time.Time, opts ...ReadOption) (*User, error)
	Save(ctx context.Context, u *User) error
}

type readOptions struct {
	withPassword bool
}

// ReadOption tunes a Store read
type ReadOption func(*readOptions)

// WithPassword makes the read include the password hash
func WithPassword() ReadOption {
	return func(o *readOptions) {
		o.withPassword = true
	}
}

func applyReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// prepareNew fills the fields a store assigns on creation
func prepareNew(u *User, now time.Time) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Tasks == nil {
		u.Tasks = []Task{}
	}
	u.CreatedAt = now
	u.UpdatedAt = now
}
