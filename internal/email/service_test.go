package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/todo-api/internal/config"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(sent *[]sentMail, err error) *Service {
	s := NewService(config.EmailConfig{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "587",
		SMTPUser:     "noreply@example.com",
		SMTPPassword: "pw",
	}, 5*time.Minute)
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return err
	}
	return s
}

func TestSendVerificationOTP(t *testing.T) {
	var sent []sentMail
	s := newTestService(&sent, nil)

	require.NoError(t, s.SendVerificationOTP(context.Background(), "ann@x.com", 4821))

	require.Len(t, sent, 1)
	assert.Equal(t, "smtp.example.com:587", sent[0].addr)
	assert.Equal(t, "noreply@example.com", sent[0].from)
	assert.Equal(t, []string{"ann@x.com"}, sent[0].to)
	assert.Contains(t, sent[0].msg, "Subject: Verify your account\r\n")
	// not zero-padded
	assert.Contains(t, sent[0].msg, ">4821<")
	assert.Contains(t, sent[0].msg, "expire in 5 minutes")
}

func TestSendPasswordResetOTP(t *testing.T) {
	var sent []sentMail
	s := newTestService(&sent, nil)

	require.NoError(t, s.SendPasswordResetOTP(context.Background(), "ann@x.com", 123456))

	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].msg, "Subject: Request for resetting password\r\n")
	assert.Contains(t, sent[0].msg, ">123456<")
	assert.Contains(t, sent[0].msg, "expire in 10 minutes")
}

func TestSendOTPError(t *testing.T) {
	var sent []sentMail
	s := newTestService(&sent, errors.New("connection refused"))

	err := s.SendVerificationOTP(context.Background(), "ann@x.com", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
