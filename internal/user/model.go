package user

import (
	"time"

	"github.com/google/uuid"
)

// Avatar references an image kept by the external image host
type Avatar struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Task is a to-do entry. It only exists inside its owner's task list.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	Avatar       *Avatar   `json:"avatar,omitempty"`
	Verified     bool      `json:"verified"`

	// Registration OTP, set only while verification is pending
	OTP       *int       `json:"-"`
	OTPExpiry *time.Time `json:"-"`

	// Password reset OTP, independent of the registration OTP
	ResetPasswordOTP       *int       `json:"-"`
	ResetPasswordOTPExpiry *time.Time `json:"-"`

	Tasks     []Task    `json:"tasks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetOTP opens a verification window that closes at expiry
func (u *User) SetOTP(otp int, expiry time.Time) {
	u.OTP = &otp
	u.OTPExpiry = &expiry
}

// ClearOTP closes the verification window. Reset fields are untouched.
func (u *User) ClearOTP() {
	u.OTP = nil
	u.OTPExpiry = nil
}

// SetResetPasswordOTP opens a password reset window that closes at expiry
func (u *User) SetResetPasswordOTP(otp int, expiry time.Time) {
	u.ResetPasswordOTP = &otp
	u.ResetPasswordOTPExpiry = &expiry
}

// ClearResetPasswordOTP closes the reset window. Registration OTP fields are untouched.
func (u *User) ClearResetPasswordOTP() {
	u.ResetPasswordOTP = nil
	u.ResetPasswordOTPExpiry = nil
}

// OTPValid reports whether otp matches the stored registration OTP and now is
// before its expiry.
func (u *User) OTPValid(otp int, now time.Time) bool {
	if u.OTP == nil || u.OTPExpiry == nil {
		return false
	}
	return *u.OTP == otp && now.Before(*u.OTPExpiry)
}
