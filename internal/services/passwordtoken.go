package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/apperr"
	"github.com/skillbase/skillbase-backend/internal/clients/sendgrid"
	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/repos"
	"github.com/skillbase/skillbase-backend/internal/types"
	"github.com/skillbase/skillbase-backend/internal/utils"
)

// PasswordTokenService mails a freshly provisioned user the link where they
// pick their first password. Every call rotates the stored token, so only
// the most recent mail stays valid.
type PasswordTokenService interface {
	MailFirstPasswordToken(ctx context.Context, tx *gorm.DB, user *types.User, referrer string) error
}

type passwordTokenService struct {
	db         *gorm.DB
	log        *logger.Logger
	userRepo   repos.UserRepo
	schoolRepo repos.SchoolRepo
	mailer     sendgrid.Client
	fromEmail  string
	fromName   string
	now        func() time.Time
}

func NewPasswordTokenService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	schoolRepo repos.SchoolRepo,
	mailer sendgrid.Client,
) PasswordTokenService {
	log := baseLog.With("service", "PasswordTokenService")
	return &passwordTokenService{
		db:         db,
		log:        log,
		userRepo:   userRepo,
		schoolRepo: schoolRepo,
		mailer:     mailer,
		fromEmail:  utils.GetEnv("MAIL_FROM_EMAIL", "noreply@skillbase.io", log),
		fromName:   utils.GetEnv("MAIL_FROM_NAME", "Skillbase", log),
		now:        time.Now,
	}
}

func (s *passwordTokenService) MailFirstPasswordToken(ctx context.Context, tx *gorm.DB, user *types.User, referrer string) error {
	if user == nil {
		return fmt.Errorf("%w: user is nil", apperr.ErrInvalidArgument)
	}
	domain, err := s.schoolRepo.GetPrimaryDomain(ctx, tx, user.SchoolID)
	if err != nil {
		return err
	}
	if domain == nil {
		return fmt.Errorf("%w: school %s has no primary domain", apperr.ErrInvalidArgument, user.SchoolID)
	}

	token, err := newPasswordToken()
	if err != nil {
		return err
	}
	sentAt := s.now()
	err = s.userRepo.UpdateFields(ctx, tx, user.ID, map[string]interface{}{
		"reset_password_token":   token,
		"reset_password_sent_at": sentAt,
	})
	if err != nil {
		return err
	}
	user.ResetPasswordToken = token
	user.ResetPasswordSentAt = &sentAt

	link := firstPasswordLink(domain.FQDN, token, referrer)
	_, err = s.mailer.Send(ctx, sendgrid.SendEmailRequest{
		From:    sendgrid.EmailAddress{Email: s.fromEmail, Name: s.fromName},
		To:      []sendgrid.EmailAddress{{Email: user.Email, Name: user.FullName()}},
		Subject: "Set your password",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour account is ready. Choose your password here:\n\n%s\n",
			user.FirstName, link,
		),
	})
	if err != nil {
		return err
	}
	s.log.Info("First-password mail sent", "user_id", user.ID, "email", user.Email)
	return nil
}

func firstPasswordLink(fqdn, token, referrer string) string {
	query := url.Values{}
	query.Set("reset_password_token", token)
	if referrer != "" {
		query.Set("referrer", referrer)
	}
	return fmt.Sprintf("https://%s/password/edit?%s", fqdn, query.Encode())
}

func newPasswordToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
