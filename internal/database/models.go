package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table row. Tasks live in a single jsonb column so the
// whole list is read and written together with its owner.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                     uuid.UUID  `bun:"id,pk,type:uuid"`
	Name                   string     `bun:"name,notnull"`
	Email                  string     `bun:"email,notnull,unique"`
	PasswordHash           string     `bun:"password_hash,notnull"`
	AvatarPublicID         *string    `bun:"avatar_public_id"`
	AvatarURL              *string    `bun:"avatar_url"`
	Verified               bool       `bun:"verified,notnull"`
	OTP                    *int       `bun:"otp"`
	OTPExpiry              *time.Time `bun:"otp_expiry"`
	ResetPasswordOTP       *int       `bun:"reset_password_otp"`
	ResetPasswordOTPExpiry *time.Time `bun:"reset_password_otp_expiry"`
	Tasks                  []Task     `bun:"tasks,type:jsonb,notnull"`
	CreatedAt              time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt              time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Task is the jsonb shape of one entry in users.tasks
type Task struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}
