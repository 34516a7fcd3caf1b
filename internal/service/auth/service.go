package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/email"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/auth"
	"github.com/hireloop/jobboard-api/pkg/errors"
	"github.com/hireloop/jobboard-api/pkg/logger"
	"github.com/hireloop/jobboard-api/pkg/security"
)

const resetTokenTTL = time.Hour

type Service interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type service struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
	emailSvc email.Service
	logger   *logger.Logger
}

func NewService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	hasher security.PasswordHasher,
	jwtSvc auth.JWTService,
	emailSvc email.Service,
	log *logger.Logger,
) Service {
	return &service{
		users:    users,
		profiles: profiles,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
		emailSvc: emailSvc,
		logger:   log,
	}
}

func (s *service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, errors.BadRequest("role must be candidate or recruiter", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Internal(err)
	}

	rawToken, tokenHash, err := security.GenerateToken()
	if err != nil {
		return nil, errors.Internal(err)
	}

	user := &model.User{
		Name:              req.Name,
		Email:             req.Email,
		PasswordHash:      hash,
		Role:              req.Role,
		VerificationToken: &tokenHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	// Candidates get an empty profile to fill in later.
	if user.Role == model.RoleCandidate {
		profile := &model.Profile{UserID: user.ID}
		if err := s.profiles.Create(ctx, profile); err != nil {
			s.logger.Error(err, "failed to create profile for new user", "user_id", user.ID.String())
		}
	}

	if err := s.emailSvc.SendVerification(ctx, user.Email, rawToken); err != nil {
		s.logger.Error(err, "failed to send verification email", "user_id", user.ID.String())
	}

	return user, nil
}

func (s *service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errors.Unauthorized(err)
	}

	if !user.IsVerified {
		return nil, errors.Forbidden("email not verified", nil)
	}

	token, err := s.jwtSvc.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, errors.Internal(err)
	}

	return &model.TokenResponse{Token: token, User: user}, nil
}

func (s *service) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.users.GetByVerificationToken(ctx, security.HashToken(token))
	if err != nil {
		return err
	}

	user.IsVerified = true
	user.VerificationToken = nil
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.logger.Error(err, "failed to send welcome email", "user_id", user.ID.String())
	}
	return nil
}

// ForgotPassword never reveals whether the address exists.
func (s *service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		s.logger.Debug("password reset requested for unknown email")
		return nil
	}

	rawToken, tokenHash, err := security.GenerateToken()
	if err != nil {
		return errors.Internal(err)
	}

	expiry := time.Now().Add(resetTokenTTL)
	user.ResetPasswordToken = &tokenHash
	user.ResetPasswordExpiry = &expiry
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, rawToken); err != nil {
		s.logger.Error(err, "failed to send reset email", "user_id", user.ID.String())
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	user, err := s.users.GetByResetToken(ctx, security.HashToken(req.Token))
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return errors.Internal(err)
	}

	user.PasswordHash = hash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpiry = nil
	return s.users.Update(ctx, user)
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.Get(ctx, id)
}
