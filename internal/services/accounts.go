package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/apperr"
	"github.com/skillbase/skillbase-backend/internal/clients/keycloak"
	"github.com/skillbase/skillbase-backend/internal/clients/mailchimp"
	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/repos"
	"github.com/skillbase/skillbase-backend/internal/types"
	"github.com/skillbase/skillbase-backend/internal/xapi"
)

// ProvisionParams describes one account to create across the identity
// provider, the local database and the marketing audience.
type ProvisionParams struct {
	SchoolID  uuid.UUID
	StartupID *uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Referrer  string
}

// AccountService provisions user accounts. Provisioning is idempotent on
// email: an existing local user is returned as-is, and an existing identity
// provider account is reused rather than re-created. A user provisioned into
// a startup is thereby registered for the startup's course, which emits a
// registration statement.
type AccountService interface {
	Provision(ctx context.Context, tx *gorm.DB, params ProvisionParams) (*types.User, error)
	SignOut(ctx context.Context, refreshToken string) error
}

type accountService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	startupRepo    repos.StartupRepo
	schoolRepo     repos.SchoolRepo
	identity       keycloak.Client
	marketing      mailchimp.Client
	passwordTokens PasswordTokenService
	dispatcher     StatementDispatcher
	now            func() time.Time
}

func NewAccountService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	startupRepo repos.StartupRepo,
	schoolRepo repos.SchoolRepo,
	identity keycloak.Client,
	marketing mailchimp.Client,
	passwordTokens PasswordTokenService,
	dispatcher StatementDispatcher,
) AccountService {
	return &accountService{
		db:             db,
		log:            baseLog.With("service", "AccountService"),
		userRepo:       userRepo,
		startupRepo:    startupRepo,
		schoolRepo:     schoolRepo,
		identity:       identity,
		marketing:      marketing,
		passwordTokens: passwordTokens,
		dispatcher:     dispatcher,
		now:            time.Now,
	}
}

func (s *accountService) Provision(ctx context.Context, tx *gorm.DB, params ProvisionParams) (*types.User, error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", apperr.ErrInvalidArgument)
	}
	if params.SchoolID == uuid.Nil {
		return nil, fmt.Errorf("%w: school_id is required", apperr.ErrInvalidArgument)
	}

	existing, err := s.userRepo.GetByEmail(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Info("User already provisioned", "user_id", existing.ID, "email", email)
		return existing, nil
	}

	password, err := randomPassword()
	if err != nil {
		return nil, err
	}

	records, err := s.identity.SearchUsers(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		if _, err := s.identity.CreateUser(ctx, email, password, params.FirstName, params.LastName); err != nil {
			return nil, err
		}
	} else {
		s.log.Info("Identity provider account already exists", "email", email)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{
		SchoolID:       params.SchoolID,
		StartupID:      params.StartupID,
		Email:          email,
		PasswordDigest: string(digest),
		FirstName:      params.FirstName,
		LastName:       params.LastName,
	}
	created, err := s.userRepo.Create(ctx, tx, []*types.User{user})
	if err != nil {
		return nil, err
	}
	user = created[0]

	// Marketing subscription, registration telemetry and the first-password
	// mail are best-effort: the account itself is already usable.
	if _, err := s.marketing.AddContact(ctx, email, user.FullName()); err != nil {
		s.log.Warn("Marketing contact creation failed", "email", email, "error", err)
	}
	if params.StartupID != nil {
		if err := s.dispatchRegistration(ctx, tx, user, *params.StartupID); err != nil {
			s.log.Warn("Registration statement failed", "user_id", user.ID, "error", err)
		}
	}
	if err := s.passwordTokens.MailFirstPasswordToken(ctx, tx, user, params.Referrer); err != nil {
		s.log.Warn("First-password mail failed", "user_id", user.ID, "error", err)
	}

	s.log.Info("User provisioned", "user_id", user.ID, "email", email)
	return user, nil
}

// dispatchRegistration queues a course-registration statement for a user
// joining a startup. Registration statements carry the course's internal
// name plus the time remaining until the course's end date.
func (s *accountService) dispatchRegistration(ctx context.Context, tx *gorm.DB, user *types.User, startupID uuid.UUID) error {
	startup, err := s.startupRepo.GetByIDWithCourse(ctx, tx, startupID)
	if err != nil {
		return err
	}
	if startup == nil || startup.Course == nil {
		return fmt.Errorf("%w: startup %s has no course", apperr.ErrInvalidArgument, startupID)
	}
	course := startup.Course

	domain, err := s.schoolRepo.GetPrimaryDomain(ctx, tx, course.SchoolID)
	if err != nil {
		return err
	}
	if domain == nil {
		return fmt.Errorf("%w: school %s has no primary domain", apperr.ErrInvalidArgument, course.SchoolID)
	}

	statement, err := xapi.BuildStatement(xapi.Event{
		Kind:  xapi.EventCourseRegistered,
		Agent: xapi.NewAgent(user.FullName(), user.Email),
		Course: &xapi.CourseInfo{
			URL:         courseURL(domain.FQDN, course.ID),
			Name:        course.Name,
			Title:       course.Title,
			Description: course.Description,
			EndsAt:      course.EndsAt,
		},
	}, s.now())
	if err != nil {
		return err
	}
	return s.dispatcher.Dispatch(ctx, tx, statement, nil)
}

func (s *accountService) SignOut(ctx context.Context, refreshToken string) error {
	return s.identity.SignOut(ctx, refreshToken)
}

func randomPassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
