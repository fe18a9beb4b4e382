package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/skillbase/skillbase-backend/internal/clients/sendgrid"
	"github.com/skillbase/skillbase-backend/internal/types"
)

type fakeMailer struct {
	sent []sendgrid.SendEmailRequest
}

func (f *fakeMailer) Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	f.sent = append(f.sent, req)
	return &sendgrid.SendEmailResult{StatusCode: 202}, nil
}

func TestMailFirstPasswordToken(t *testing.T) {
	log := testLogger(t)
	schoolID := uuid.New()
	user := &types.User{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
	userRepo := &fakeUserRepo{byEmail: map[string]*types.User{}}
	schoolRepo := &fakeSchoolRepo{domain: &types.Domain{
		ID:       uuid.New(),
		SchoolID: schoolID,
		FQDN:     "school.example.com",
		Primary:  true,
	}}
	mailer := &fakeMailer{}
	svc := NewPasswordTokenService(nil, log, userRepo, schoolRepo, mailer)

	if err := svc.MailFirstPasswordToken(context.Background(), nil, user, "dashboard"); err != nil {
		t.Fatalf("MailFirstPasswordToken: %v", err)
	}

	if user.ResetPasswordToken == "" || user.ResetPasswordSentAt == nil {
		t.Fatalf("token not stored: token=%q sent_at=%v", user.ResetPasswordToken, user.ResetPasswordSentAt)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("mails sent: want=1 got=%d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if len(mail.To) != 1 || mail.To[0].Email != "ada@example.com" {
		t.Fatalf("mail recipient: %+v", mail.To)
	}
	if !strings.Contains(mail.Text, "https://school.example.com/password/edit?") {
		t.Fatalf("mail link host: %q", mail.Text)
	}
	if !strings.Contains(mail.Text, "reset_password_token="+user.ResetPasswordToken) {
		t.Fatalf("mail link token: %q", mail.Text)
	}
	if !strings.Contains(mail.Text, "referrer=dashboard") {
		t.Fatalf("mail link referrer: %q", mail.Text)
	}
}

func TestMailFirstPasswordTokenRotates(t *testing.T) {
	log := testLogger(t)
	schoolID := uuid.New()
	user := &types.User{ID: uuid.New(), SchoolID: schoolID, Email: "ada@example.com", FirstName: "Ada"}
	schoolRepo := &fakeSchoolRepo{domain: &types.Domain{SchoolID: schoolID, FQDN: "school.example.com", Primary: true}}
	svc := NewPasswordTokenService(nil, log, &fakeUserRepo{byEmail: map[string]*types.User{}}, schoolRepo, &fakeMailer{})

	if err := svc.MailFirstPasswordToken(context.Background(), nil, user, ""); err != nil {
		t.Fatalf("MailFirstPasswordToken: %v", err)
	}
	first := user.ResetPasswordToken
	if err := svc.MailFirstPasswordToken(context.Background(), nil, user, ""); err != nil {
		t.Fatalf("MailFirstPasswordToken: %v", err)
	}
	if user.ResetPasswordToken == first {
		t.Fatalf("token was not rotated")
	}
}
