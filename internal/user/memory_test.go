package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnn() *User {
	return &User{Name: "Ann", Email: "ann@x.com", PasswordHash: "hash"}
}

func TestMemoryStoreCreateAssignsIdentity(t *testing.T) {
	s := NewMemoryStore()
	u := newAnn()

	require.NoError(t, s.Create(context.Background(), u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.NotNil(t, u.Tasks)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestMemoryStoreRejectsDuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(context.Background(), newAnn()))

	err := s.Create(context.Background(), newAnn())
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryStoreReadsOmitPasswordByDefault(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newAnn()
	require.NoError(t, s.Create(ctx, u))

	got, err := s.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Empty(t, got.PasswordHash)

	got, err = s.GetByID(ctx, u.ID, WithPassword())
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestMemoryStoreSaveKeepsPasswordWhenNotLoaded(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newAnn()
	require.NoError(t, s.Create(ctx, u))

	loaded, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	loaded.Name = "Annie"
	require.NoError(t, s.Save(ctx, loaded))

	got, err := s.GetByID(ctx, u.ID, WithPassword())
	require.NoError(t, err)
	assert.Equal(t, "Annie", got.Name)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newAnn()
	require.NoError(t, s.Create(ctx, u))

	loaded, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	loaded.AddTask("unsaved", "", time.Now())

	again, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Tasks)
}

func TestMemoryStoreGetByResetOTP(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	u := newAnn()
	u.SetResetPasswordOTP(4242, now.Add(10*time.Minute))
	require.NoError(t, s.Create(ctx, u))

	got, err := s.GetByResetOTP(ctx, 4242, now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetByResetOTP(ctx, 4242, now.Add(10*time.Minute))
	assert.ErrorIs(t, err, ErrNotFound, "expiry must be strictly in the future")

	_, err = s.GetByResetOTP(ctx, 1111, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSaveUnknownUser(t *testing.T) {
	err := NewMemoryStore().Save(context.Background(), &User{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}
