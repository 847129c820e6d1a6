package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/redmonkez12/todo-api/internal/auth"
	"github.com/redmonkez12/todo-api/internal/logging"
	"github.com/redmonkez12/todo-api/internal/user"
)

// Service reads and edits the caller's profile
type Service struct {
	store        user.Store
	images       auth.ImageStore
	logger       *logging.Logger
	avatarFolder string
}

func NewService(store user.Store, images auth.ImageStore, logger *logging.Logger, avatarFolder string) *Service {
	return &Service{
		store:        store,
		images:       images,
		logger:       logger,
		avatarFolder: avatarFolder,
	}
}

// UpdateInput holds the optional profile changes. Empty fields are left alone.
type UpdateInput struct {
	Name       string
	AvatarPath string
}

func (s *Service) MyProfile(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateProfile renames the user and replaces the avatar. The previous image
// is destroyed before the new one is uploaded.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateInput) (*user.User, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if in.Name != "" {
		u.Name = in.Name
	}

	var uploadedID string
	if in.AvatarPath != "" {
		if u.Avatar != nil && u.Avatar.PublicID != "" {
			if err := s.images.Destroy(ctx, u.Avatar.PublicID); err != nil {
				return nil, fmt.Errorf("failed to remove previous avatar: %w", err)
			}
		}

		image, err := s.images.Upload(ctx, in.AvatarPath, s.avatarFolder)
		if err != nil {
			return nil, fmt.Errorf("failed to upload avatar: %w", err)
		}
		uploadedID = image.PublicID
		u.Avatar = &user.Avatar{PublicID: image.PublicID, URL: image.URL}
	}

	if err := s.store.Save(ctx, u); err != nil {
		if uploadedID != "" {
			if derr := s.images.Destroy(ctx, uploadedID); derr != nil {
				s.logger.Warn("failed to discard orphaned avatar", "public_id", uploadedID, "error", derr)
			}
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return u, nil
}
