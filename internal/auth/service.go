package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/todo-api/internal/logging"
	"github.com/redmonkez12/todo-api/internal/user"
)

var (
	ErrFieldsRequired     = errors.New("please enter all fields")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid otp or otp has expired")
	ErrEmailNotRegistered = errors.New("email is not registered")
	ErrInvalidResetOTP    = errors.New("invalid reset otp or otp has expired")
	ErrInvalidOldPassword = errors.New("invalid old password")
)

// resetOTPWindow is how long a password reset code stays valid
const resetOTPWindow = 10 * time.Minute

// Service handles the account lifecycle: registration, verification,
// login and the password flows
type Service struct {
	store        user.Store
	mailer       Mailer
	images       ImageStore
	logger       *logging.Logger
	otpExpiry    time.Duration
	avatarFolder string
	now          func() time.Time
}

func NewService(
	store user.Store,
	mailer Mailer,
	images ImageStore,
	logger *logging.Logger,
	otpExpiry time.Duration,
	avatarFolder string,
) *Service {
	return &Service{
		store:        store,
		mailer:       mailer,
		images:       images,
		logger:       logger,
		otpExpiry:    otpExpiry,
		avatarFolder: avatarFolder,
		now:          time.Now,
	}
}

// RegisterInput carries the registration form. AvatarPath is the staged
// local copy of the uploaded avatar.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	AvatarPath string
}

// Register creates an unverified account, uploads its avatar and mails the
// verification OTP
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.AvatarPath == "" {
		return nil, ErrFieldsRequired
	}
	if len(in.Email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	// bare mailbox only, no display name or angle brackets
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return nil, ErrInvalidEmailFormat
	}

	_, err = s.store.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	passwordHash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	otp, err := GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}

	image, err := s.images.Upload(ctx, in.AvatarPath, s.avatarFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	newUser := &user.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Avatar:       &user.Avatar{PublicID: image.PublicID, URL: image.URL},
		Verified:     false,
	}
	newUser.SetOTP(otp, s.now().Add(s.otpExpiry))

	if err := s.store.Create(ctx, newUser); err != nil {
		s.discardImage(ctx, image.PublicID)
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.mailer.SendVerificationOTP(ctx, newUser.Email, otp); err != nil {
		return nil, fmt.Errorf("failed to send verification email: %w", err)
	}

	newUser.PasswordHash = ""
	return newUser, nil
}

// Verify marks the account verified when otp matches the open verification window
func (s *Service) Verify(ctx context.Context, userID uuid.UUID, otp int) (*user.User, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !u.OTPValid(otp, s.now()) {
		return nil, ErrInvalidOTP
	}

	u.Verified = true
	u.ClearOTP()

	if err := s.store.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return u, nil
}

// Login checks the credentials. Unknown email and wrong password both
// return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrFieldsRequired
	}

	u, err := s.store.GetByEmail(ctx, email, user.WithPassword())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	u.PasswordHash = ""
	return u, nil
}

// ForgetPassword opens a password reset window and mails its OTP
func (s *Service) ForgetPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrFieldsRequired
	}

	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrEmailNotRegistered
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	otp, err := GenerateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	u.SetResetPasswordOTP(otp, s.now().Add(resetOTPWindow))

	if err := s.store.Save(ctx, u); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	if err := s.mailer.SendPasswordResetOTP(ctx, u.Email, otp); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}

// ResetPassword sets a new password for the user holding the unexpired reset otp
func (s *Service) ResetPassword(ctx context.Context, otp int, newPassword string) error {
	if newPassword == "" {
		return ErrFieldsRequired
	}

	u, err := s.store.GetByResetOTP(ctx, otp, s.now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetOTP
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u.PasswordHash = passwordHash
	u.ClearResetPasswordOTP()

	if err := s.store.Save(ctx, u); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// UpdatePassword replaces the password after checking the old one
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrFieldsRequired
	}

	u, err := s.store.GetByID(ctx, userID, user.WithPassword())
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(u.PasswordHash, oldPassword) {
		return ErrInvalidOldPassword
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = passwordHash

	if err := s.store.Save(ctx, u); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// discardImage removes an uploaded avatar whose account write failed
func (s *Service) discardImage(ctx context.Context, publicID string) {
	if err := s.images.Destroy(ctx, publicID); err != nil {
		s.logger.Warn("failed to discard orphaned avatar", "public_id", publicID, "error", err)
	}
}
