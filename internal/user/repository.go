package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/todo-api/internal/database"
)

// Repository is the postgres Store, built on bun
type Repository struct {
	db  *bun.DB
	now func() time.Time
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, u *User) error {
	prepareNew(u, r.now())
	dbUser := mapModelToDBUser(u)

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.CreatedAt = dbUser.CreatedAt
	u.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, opts ...ReadOption) (*User, error) {
	u, err := r.selectOne(ctx, applyReadOptions(opts), func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, err
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string, opts ...ReadOption) (*User, error) {
	u, err := r.selectOne(ctx, applyReadOptions(opts), func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, err
}

// GetByResetOTP retrieves the user holding an unexpired password reset OTP
func (r *Repository) GetByResetOTP(ctx context.Context, otp int, now time.Time, opts ...ReadOption) (*User, error) {
	u, err := r.selectOne(ctx, applyReadOptions(opts), func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("reset_password_otp = ?", otp).
			Where("reset_password_otp_expiry > ?", now)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by reset otp: %w", err)
	}
	return u, err
}

// Save writes the user and its task list back in one statement
func (r *Repository) Save(ctx context.Context, u *User) error {
	u.UpdatedAt = r.now()
	dbUser := mapModelToDBUser(u)

	excluded := []string{"id", "created_at"}
	if u.PasswordHash == "" {
		excluded = append(excluded, "password_hash")
	}

	result, err := r.db.NewUpdate().
		Model(dbUser).
		ExcludeColumn(excluded...).
		WherePK().
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) selectOne(ctx context.Context, o readOptions, where func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	dbUser := new(database.User)
	q := where(r.db.NewSelect().Model(dbUser)).Limit(1)
	if !o.withPassword {
		q = q.ExcludeColumn("password_hash")
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return mapDBUserToModel(dbUser), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	u := &User{
		ID:                     dbu.ID,
		Name:                   dbu.Name,
		Email:                  dbu.Email,
		PasswordHash:           dbu.PasswordHash,
		Verified:               dbu.Verified,
		OTP:                    dbu.OTP,
		OTPExpiry:              dbu.OTPExpiry,
		ResetPasswordOTP:       dbu.ResetPasswordOTP,
		ResetPasswordOTPExpiry: dbu.ResetPasswordOTPExpiry,
		Tasks:                  make([]Task, 0, len(dbu.Tasks)),
		CreatedAt:              dbu.CreatedAt,
		UpdatedAt:              dbu.UpdatedAt,
	}
	if dbu.AvatarPublicID != nil && dbu.AvatarURL != nil {
		u.Avatar = &Avatar{PublicID: *dbu.AvatarPublicID, URL: *dbu.AvatarURL}
	}
	for _, t := range dbu.Tasks {
		u.Tasks = append(u.Tasks, Task(t))
	}
	return u
}

func mapModelToDBUser(u *User) *database.User {
	dbu := &database.User{
		ID:                     u.ID,
		Name:                   u.Name,
		Email:                  u.Email,
		PasswordHash:           u.PasswordHash,
		Verified:               u.Verified,
		OTP:                    u.OTP,
		OTPExpiry:              u.OTPExpiry,
		ResetPasswordOTP:       u.ResetPasswordOTP,
		ResetPasswordOTPExpiry: u.ResetPasswordOTPExpiry,
		Tasks:                  make([]database.Task, 0, len(u.Tasks)),
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
	if u.Avatar != nil {
		dbu.AvatarPublicID = &u.Avatar.PublicID
		dbu.AvatarURL = &u.Avatar.URL
	}
	for _, t := range u.Tasks {
		dbu.Tasks = append(dbu.Tasks, database.Task(t))
	}
	return dbu
}
