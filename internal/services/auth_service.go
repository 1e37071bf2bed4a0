package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/hireflow/interviewer/internal/models"
	pgrepo "github.com/hireflow/interviewer/internal/repositories/postgres"
	"github.com/hireflow/interviewer/internal/utils"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error)
	Me(ctx context.Context, userID string) (*models.UserInfo, error)
	// EnsureAdmin creates the admin account when it does not exist yet.
	EnsureAdmin(ctx context.Context, email, password string) error
}

type AuthConfig struct {
	Secret   []byte
	Issuer   string
	TokenTTL time.Duration
}

type authService struct {
	users pgrepo.UserRepository
	cfg   AuthConfig
	log   *logrus.Logger
	now   func() time.Time
}

func NewAuthService(users pgrepo.UserRepository, cfg AuthConfig, log *logrus.Logger, now func() time.Time) AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if log == nil {
		log = logrus.New()
	}
	if now == nil {
		now = time.Now
	}
	return &authService{users: users, cfg: cfg, log: log, now: now}
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	const op = "AuthService.Login"

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid email or password", nil)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	if !utils.PasswordMatches(u.PasswordHash, password) {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid email or password", nil)
	}

	now := s.now().UTC()
	exp := now.Add(s.cfg.TokenTTL)
	tok, err := s.sign(u, now, exp)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}

	if err := s.users.TouchSignIn(ctx, u.ID, now); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("failed to record sign in")
	}

	return &models.LoginResponse{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresAt:   exp.Unix(),
		User:        u.Info(),
	}, nil
}

func (s *authService) sign(u *models.User, now, exp time.Time) (string, error) {
	claims := models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: u.Email,
		Role:  u.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	const op = "AuthService.Register"

	if strings.TrimSpace(req.Email) == "" || len(req.Password) < utils.MinPasswordLength {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email and a password of at least 8 characters are required", nil)
	}
	info, err := s.create(ctx, req.Email, req.Name, req.Password, models.RoleCandidate)
	if errors.Is(err, utils.ErrConflict) {
		return nil, utils.E(utils.CodeConflict, op, "email already registered", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to register user", err)
	}
	return info, nil
}

func (s *authService) create(ctx context.Context, email, name, password string, role models.UserRole) (*models.UserInfo, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Email: email, Name: strings.TrimSpace(name), PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	info := u.Info()
	return &info, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	const op = "AuthService.Me"

	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	info := u.Info()
	return &info, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	const op = "AuthService.EnsureAdmin"

	if email == "" || password == "" {
		return nil
	}
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeInternal, op, "failed to look up admin", err)
	}
	if _, err := s.create(ctx, email, "Administrator", password, models.RoleAdmin); err != nil && !errors.Is(err, utils.ErrConflict) {
		return utils.E(utils.CodeInternal, op, "failed to create admin", err)
	}
	s.log.WithField("email", email).Info("admin account created")
	return nil
}
