package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/redmonkez12/todo-api/internal/config"
	"github.com/redmonkez12/todo-api/internal/logging"
)

// resetOTPValidity matches the password reset window enforced by the auth service
const resetOTPValidity = 10 * time.Minute

var otpTemplate = template.Must(template.New("otp").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #4F46E5;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .code {
            font-size: 28px;
            font-weight: bold;
            letter-spacing: 4px;
            color: #4F46E5;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Heading}}</h1>
    </div>
    <div class="content">
        <p>{{.Intro}}</p>
        <p>Your OTP is</p>
        <p class="code">{{.OTP}}</p>
        <p style="margin-top: 30px;">{{.Ignore}}</p>
    </div>
    <div class="footer">
        <p>This code will expire in {{.ValidMinutes}} minutes.</p>
    </div>
</body>
</html>
`))

type otpMessage struct {
	Heading      string
	Intro        string
	OTP          int
	Ignore       string
	ValidMinutes int
}

// sendFunc matches smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service sends one-time codes over SMTP
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	otpValidity  time.Duration
	send         sendFunc
}

func NewService(cfg config.EmailConfig, otpValidity time.Duration) *Service {
	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.SMTPUser,
		otpValidity:  otpValidity,
		send:         smtp.SendMail,
	}
}

// SendVerificationOTP mails the registration code
func (s *Service) SendVerificationOTP(ctx context.Context, toEmail string, otp int) error {
	return s.sendOTP(ctx, toEmail, "Verify your account", otpMessage{
		Heading:      "Welcome!",
		Intro:        "Thank you for signing up! Enter the code below to verify your account.",
		OTP:          otp,
		Ignore:       "If you didn't create an account, you can safely ignore this email.",
		ValidMinutes: int(s.otpValidity.Minutes()),
	})
}

// SendPasswordResetOTP mails the password reset code
func (s *Service) SendPasswordResetOTP(ctx context.Context, toEmail string, otp int) error {
	return s.sendOTP(ctx, toEmail, "Request for resetting password", otpMessage{
		Heading:      "Password Reset Request",
		Intro:        "Use the code below to reset your password.",
		OTP:          otp,
		Ignore:       "If you did not request this, please ignore this email. Your password will remain unchanged.",
		ValidMinutes: int(resetOTPValidity.Minutes()),
	})
}

func (s *Service) sendOTP(ctx context.Context, toEmail, subject string, data otpMessage) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := renderOTP(data)
	if err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send email", "email", toEmail, "subject", subject, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("otp email sent", "email", toEmail, "subject", subject)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

func renderOTP(data otpMessage) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
