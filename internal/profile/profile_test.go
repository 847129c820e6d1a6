package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/todo-api/internal/auth"
	"github.com/redmonkez12/todo-api/internal/logging"
	"github.com/redmonkez12/todo-api/internal/media"
	"github.com/redmonkez12/todo-api/internal/user"
)

type fakeImages struct {
	calls     []string
	uploadErr error
	seq       int
}

func (f *fakeImages) Upload(_ context.Context, localPath, folder string) (media.Image, error) {
	f.calls = append(f.calls, "upload:"+filepath.Base(localPath))
	if f.uploadErr != nil {
		return media.Image{}, f.uploadErr
	}
	f.seq++
	id := folder + "/new-" + strconv.Itoa(f.seq)
	return media.Image{PublicID: id, URL: "https://img.example.com/" + id}, nil
}

func (f *fakeImages) Destroy(_ context.Context, publicID string) error {
	f.calls = append(f.calls, "destroy:"+publicID)
	return nil
}

type failingSaveStore struct {
	*user.MemoryStore
}

func (failingSaveStore) Save(context.Context, *user.User) error {
	return errors.New("write conflict")
}

func seedUser(t *testing.T, store *user.MemoryStore) *user.User {
	t.Helper()
	u := &user.User{
		Name:         "Ann",
		Email:        "ann@x.com",
		PasswordHash: "hash",
		Avatar:       &user.Avatar{PublicID: "todoApp/old", URL: "https://img.example.com/todoApp/old"},
	}
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

func TestUpdateProfileReplacesAvatar(t *testing.T) {
	ctx := context.Background()
	store := user.NewMemoryStore()
	images := &fakeImages{}
	svc := NewService(store, images, logging.Discard(), "todoApp")
	u := seedUser(t, store)

	updated, err := svc.UpdateProfile(ctx, u.ID, UpdateInput{Name: "Annie", AvatarPath: "/stage/avatar.png"})
	require.NoError(t, err)

	assert.Equal(t, []string{"destroy:todoApp/old", "upload:avatar.png"}, images.calls)
	assert.Equal(t, "Annie", updated.Name)
	assert.Equal(t, "todoApp/new-1", updated.Avatar.PublicID)

	stored, err := store.GetByID(ctx, u.ID, user.WithPassword())
	require.NoError(t, err)
	assert.Equal(t, "Annie", stored.Name)
	assert.Equal(t, "todoApp/new-1", stored.Avatar.PublicID)
	assert.Equal(t, "hash", stored.PasswordHash)
}

func TestUpdateProfileNameOnly(t *testing.T) {
	ctx := context.Background()
	store := user.NewMemoryStore()
	images := &fakeImages{}
	svc := NewService(store, images, logging.Discard(), "todoApp")
	u := seedUser(t, store)

	_, err := svc.UpdateProfile(ctx, u.ID, UpdateInput{Name: "Annie"})
	require.NoError(t, err)
	assert.Empty(t, images.calls)

	stored, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "todoApp/old", stored.Avatar.PublicID)

	_, err = svc.UpdateProfile(ctx, u.ID, UpdateInput{})
	require.NoError(t, err)
	stored, err = store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Annie", stored.Name)
}

func TestUpdateProfileWithoutPreviousAvatar(t *testing.T) {
	ctx := context.Background()
	store := user.NewMemoryStore()
	images := &fakeImages{}
	svc := NewService(store, images, logging.Discard(), "todoApp")
	u := &user.User{Name: "Bob", Email: "bob@x.com"}
	require.NoError(t, store.Create(ctx, u))

	_, err := svc.UpdateProfile(ctx, u.ID, UpdateInput{AvatarPath: "/stage/avatar.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"upload:avatar.jpg"}, images.calls)
}

func TestUpdateProfileSaveFailureDiscardsNewAvatar(t *testing.T) {
	store := user.NewMemoryStore()
	images := &fakeImages{}
	u := seedUser(t, store)
	svc := NewService(failingSaveStore{store}, images, logging.Discard(), "todoApp")

	_, err := svc.UpdateProfile(context.Background(), u.ID, UpdateInput{AvatarPath: "/stage/avatar.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write conflict")
	assert.Equal(t, []string{"destroy:todoApp/old", "upload:avatar.png", "destroy:todoApp/new-1"}, images.calls)
}

func TestMyProfileUnknownUser(t *testing.T) {
	svc := NewService(user.NewMemoryStore(), &fakeImages{}, logging.Discard(), "todoApp")
	_, err := svc.MyProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func newTestHandler(t *testing.T, store user.Store, images auth.ImageStore) *Handler {
	t.Helper()
	tokens, err := auth.NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	sessions := auth.NewSessions(tokens, nil, time.Hour, false)
	return NewHandler(NewService(store, images, logging.Discard(), "todoApp"), sessions, media.NewStager(t.TempDir(), 1<<20))
}

func TestMeHandler(t *testing.T) {
	store := user.NewMemoryStore()
	u := seedUser(t, store)
	h := newTestHandler(t, store, &fakeImages{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), u.ID))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body auth.SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "Welcome back Ann", body.Message)
	require.NotNil(t, body.User)
	assert.Equal(t, u.ID, body.User.ID)

	var hasCookie bool
	for _, c := range rec.Result().Cookies() {
		hasCookie = hasCookie || c.Name == auth.TokenCookieName
	}
	assert.True(t, hasCookie)
}

func TestMeHandlerStoreFailure(t *testing.T) {
	h := newTestHandler(t, user.NewMemoryStore(), &fakeImages{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
}

func TestUpdateProfileHandler(t *testing.T) {
	store := user.NewMemoryStore()
	u := seedUser(t, store)
	images := &fakeImages{}
	h := newTestHandler(t, store, images)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Annie"))
	fw, err := mw.CreateFormFile("avatar", "pic.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/updateprofile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(auth.WithUserID(req.Context(), u.ID))
	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Profile Updated Successfully"}`, rec.Body.String())
	assert.Equal(t, []string{"destroy:todoApp/old", "upload:avatar.png"}, images.calls)

	stored, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Annie", stored.Name)
}

func TestUpdateProfileHandlerRequiresUser(t *testing.T) {
	h := newTestHandler(t, user.NewMemoryStore(), &fakeImages{})

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, httptest.NewRequest(http.MethodPut, "/updateprofile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
