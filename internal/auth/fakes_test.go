package auth

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/redmonkez12/todo-api/internal/media"
)

type sentOTP struct {
	to  string
	otp int
}

type fakeMailer struct {
	mu           sync.Mutex
	verification []sentOTP
	reset        []sentOTP
	err          error
}

func (m *fakeMailer) SendVerificationOTP(_ context.Context, to string, otp int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.verification = append(m.verification, sentOTP{to: to, otp: otp})
	return nil
}

func (m *fakeMailer) SendPasswordResetOTP(_ context.Context, to string, otp int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reset = append(m.reset, sentOTP{to: to, otp: otp})
	return nil
}

type fakeImages struct {
	mu        sync.Mutex
	uploaded  []string
	destroyed []string
	uploadErr error
}

func (f *fakeImages) Upload(_ context.Context, localPath, folder string) (media.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return media.Image{}, f.uploadErr
	}
	id := folder + "/" + filepath.Base(localPath)
	f.uploaded = append(f.uploaded, localPath)
	return media.Image{PublicID: id, URL: "https://img.example.com/" + id}, nil
}

func (f *fakeImages) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

type fakeLimiter struct {
	exceeded    bool
	cooldown    bool
	cooldownErr error
	recorded    []string
	cooldowns   []string
}

func (l *fakeLimiter) CheckIPRateLimitWithPurpose(context.Context, string, string) (bool, error) {
	return l.exceeded, nil
}

func (l *fakeLimiter) RecordIPRequestWithPurpose(_ context.Context, _ string, purpose string) error {
	l.recorded = append(l.recorded, purpose)
	return nil
}

func (l *fakeLimiter) CheckEmailCooldown(context.Context, string) (bool, error) {
	return l.cooldown, l.cooldownErr
}

func (l *fakeLimiter) SetEmailCooldown(_ context.Context, email string) error {
	l.cooldowns = append(l.cooldowns, email)
	return nil
}

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (m *memoryRevocations) Revoke(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = map[string]time.Duration{}
	}
	m.revoked[token] = ttl
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[token]
	return ok, nil
}
