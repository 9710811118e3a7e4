package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"mockinterview/internal/common/cache"
	"mockinterview/internal/user/repository"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAccessTokenTTL = 24 * time.Hour
	defaultLoginFailTTL   = 15 * time.Minute
	defaultLoginFailLimit = 5
)

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	JWTSecret      []byte
	JWTIssuer      string
	AccessTokenTTL time.Duration
	LoginFailTTL   time.Duration
	LoginFailLimit int
	BcryptCost     int
}

// TokenRevoker stores revoked token hashes until the tokens expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, tokenHash string, expiresAt time.Time) (bool, error)
}

// AuthService handles user authentication flows.
type AuthService struct {
	users     repository.UserRepository
	blacklist TokenRevoker
	limiter   *loginLimiter
	config    AuthServiceConfig
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repository.UserRepository,
	blacklist TokenRevoker,
	loginFailCache cache.BasicOps,
	cfg AuthServiceConfig,
) *AuthService {
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.LoginFailTTL == 0 {
		cfg.LoginFailTTL = defaultLoginFailTTL
	}
	if cfg.LoginFailLimit == 0 {
		cfg.LoginFailLimit = defaultLoginFailLimit
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "mockinterview"
	}
	return &AuthService{
		users:     users,
		blacklist: blacklist,
		limiter:   newLoginLimiter(loginFailCache, cfg.LoginFailLimit, cfg.LoginFailTTL),
		config:    cfg,
		now:       time.Now,
	}
}

// RegisterInput represents input for user registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput represents input for user login.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// UserInfo represents the public profile of a user.
type UserInfo struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// AuthResult represents the result of register and login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      UserInfo
}

// Identity is what a verified token proves.
type Identity struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// Register creates a new user and issues a token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)
	if err := validateName(input.Name); err != nil {
		return AuthResult{}, err
	}
	if err := validateEmail(email); err != nil {
		return AuthResult{}, err
	}
	if err := validatePassword(input.Password); err != nil {
		return AuthResult{}, err
	}

	exists, err := s.users.ExistsByEmail(ctx, nil, email)
	if err != nil {
		return AuthResult{}, pkgerrors.Wrap(fmt.Errorf("check email failed: %w", err), pkgerrors.DatabaseError)
	}
	if exists {
		return AuthResult{}, pkgerrors.New(pkgerrors.EmailAlreadyExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return AuthResult{}, pkgerrors.Wrap(fmt.Errorf("hash password failed: %w", err), pkgerrors.InternalServerError)
	}

	user := &repository.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: string(passwordHash),
		CreatedAt:    s.now(),
	}
	userID, err := s.users.Create(ctx, nil, user)
	if err != nil {
		return AuthResult{}, mapUserCreateError(err)
	}
	user.ID = userID

	logger.Info(ctx, "user registered", zap.Int64("user_id", userID))
	return s.issueToken(user)
}

// Login verifies credentials and issues a token. Repeated failures for the same
// email or client ip are throttled.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return AuthResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
	}
	subjects := loginSubjects(email, input.IP)
	if err := s.limiter.Check(ctx, subjects); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			s.limiter.Fail(ctx, subjects)
			return AuthResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
		}
		return AuthResult{}, pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.limiter.Fail(ctx, subjects)
		return AuthResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
	}
	s.limiter.Reset(ctx, subjects)

	return s.issueToken(user)
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.parseToken(rawToken)
	if err != nil {
		return err
	}
	if s.blacklist == nil {
		return pkgerrors.New(pkgerrors.ServiceUnavailable).WithMessage("token revocation is unavailable")
	}
	if err := s.blacklist.Revoke(ctx, hashToken(rawToken), claims.ExpiresAt.Time); err != nil {
		return pkgerrors.Wrap(fmt.Errorf("revoke token failed: %w", err), pkgerrors.CacheError)
	}
	return nil
}

// Authenticate verifies a bearer token and checks it has not been revoked.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (Identity, error) {
	claims, err := s.parseToken(rawToken)
	if err != nil {
		return Identity{}, err
	}
	userID, err := userIDFromClaims(claims)
	if err != nil {
		return Identity{}, err
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, hashToken(rawToken), claims.ExpiresAt.Time)
		if err != nil {
			return Identity{}, pkgerrors.Wrap(err, pkgerrors.ServiceUnavailable)
		}
		if revoked {
			return Identity{}, pkgerrors.New(pkgerrors.TokenInvalid)
		}
	}
	return Identity{UserID: userID, Email: claims.Email, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Me returns the profile of userID.
func (s *AuthService) Me(ctx context.Context, userID int64) (UserInfo, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return UserInfo{}, pkgerrors.New(pkgerrors.UserNotFound)
		}
		return UserInfo{}, pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}
	return toUserInfo(user), nil
}

// CandidateName returns the display name printed on interview reports.
func (s *AuthService) CandidateName(ctx context.Context, userID int64) (string, error) {
	info, err := s.Me(ctx, userID)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

func (s *AuthService) issueToken(user *repository.User) (AuthResult, error) {
	token, expiresAt, err := s.generateToken(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, ExpiresAt: expiresAt, User: toUserInfo(user)}, nil
}

func toUserInfo(user *repository.User) UserInfo {
	return UserInfo{ID: user.ID, Name: user.Name, Email: user.Email, CreatedAt: user.CreatedAt}
}

func mapUserCreateError(err error) error {
	if stderrors.Is(err, repository.ErrEmailExists) {
		return pkgerrors.New(pkgerrors.EmailAlreadyExists)
	}
	if stderrors.Is(err, repository.ErrDuplicate) {
		return pkgerrors.New(pkgerrors.RecordAlreadyExists)
	}
	return pkgerrors.Wrap(fmt.Errorf("create user failed: %w", err), pkgerrors.DatabaseError)
}

// AuthenticateUser adapts Authenticate for the HTTP auth middleware.
func (s *AuthService) AuthenticateUser(ctx context.Context, rawToken string) (int64, error) {
	identity, err := s.Authenticate(ctx, rawToken)
	if err != nil {
		return 0, err
	}
	return identity.UserID, nil
}
