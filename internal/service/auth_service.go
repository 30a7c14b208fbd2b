package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"social/internal/cache"
	"social/internal/config"
	"social/internal/mailer"
	"social/internal/middleware"
	"social/internal/models"
	"social/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "social-api"
	tokenAudience = "social-client"

	purposeSession    = "session"
	purposeActivation = "activation"
)

// Auth error messages.
const (
	msgInvalidCredentials = "Invalid credentials!"
	msgNotActivated       = "Account not activated! Check your email."
	msgTokenInvalid       = "Token invalid or expired!"
	msgUnauthorized       = "Unauthorized!"
)

// Claims is the JWT payload of session and activation tokens.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// AuthService signs users up and in and validates their tokens.
type AuthService struct {
	users  repository.UserRepository
	cache  *cache.Cache
	mailer mailer.Sender
	cfg    *config.Config
	now    func() time.Time
}

type SignUpInput struct {
	Name          string
	Email         string
	Password      string
	PasswordAgain string
}

// Session is a signed-in user and its token.
type Session struct {
	User  *models.User
	Token string
}

func NewAuthService(users repository.UserRepository, c *cache.Cache, sender mailer.Sender, cfg *config.Config) *AuthService {
	if c == nil {
		c = cache.New(nil)
	}
	return &AuthService{users: users, cache: c, mailer: sender, cfg: cfg, now: time.Now}
}

func (s *AuthService) create(ctx context.Context, in SignUpInput, activated bool) (*models.User, error) {
	user, err := models.NewUser(in.Name, in.Email, in.Password, in.PasswordAgain)
	if err != nil {
		return nil, err
	}
	user.Activated = activated
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignUp creates an unactivated account and emails an activation link.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (mailer.Receipt, error) {
	user, err := s.create(ctx, in, false)
	if err != nil {
		return mailer.Receipt{}, err
	}

	token, err := s.issue(user, purposeActivation, s.cfg.ActivationExpiresIn)
	if err != nil {
		return mailer.Receipt{}, models.NewInternalError(err)
	}
	href := s.ActivationURL(token)
	email, err := mailer.ActivationEmail(user.Email, href, s.cfg.ActivationExpiresIn)
	if err != nil {
		return mailer.Receipt{}, models.NewInternalError(err)
	}
	receipt, err := s.mailer.Send(ctx, email)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "activation email failed",
			slog.String("user", user.IDHex()),
			slog.String("error", err.Error()),
		)
		return mailer.Receipt{}, models.NewInternalError(fmt.Errorf("send activation email: %w", err))
	}
	return receipt, nil
}

// SignUpNow creates an activated account and signs it in.
func (s *AuthService) SignUpNow(ctx context.Context, in SignUpInput) (*Session, error) {
	user, err := s.create(ctx, in, true)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

// ActivationURL is the link mailed to new users.
func (s *AuthService) ActivationURL(token string) string {
	return s.cfg.Host + s.cfg.APIPath() + "/auth/activate/" + token
}

// Activate marks the token's user activated and signs it in.
func (s *AuthService) Activate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, models.NewFieldError("token")
	}
	claims, err := s.parse(token, purposeActivation)
	if err != nil {
		return nil, models.NewAuthError(msgTokenInvalid)
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, models.NewAuthError(msgTokenInvalid)
	}
	if !user.Activated {
		user.Activated = true
		if err := s.users.Save(ctx, user); err != nil {
			return nil, err
		}
		s.cache.InvalidateUser(ctx, user.IDHex())
	}
	return s.session(user)
}

// SignIn checks credentials of an activated account.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if email == "" {
		return nil, models.NewFieldError("email")
	}
	if password == "" {
		return nil, models.NewFieldError("password")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Status == http.StatusNotFound {
			return nil, models.NewAuthError(msgInvalidCredentials)
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, models.NewAuthError(msgInvalidCredentials)
	}
	if !user.Activated {
		return nil, models.NewAuthError(msgNotActivated)
	}
	return s.session(user)
}

// SignOut revokes token until it would have expired. Invalid tokens are
// ignored, and a failed revocation is logged: the token then stays valid
// until it expires.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.parse(token, purposeSession)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.cache.Revoke(ctx, claims.ID, claims.ExpiresAt.Sub(s.now())); err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation failed",
			slog.String("user", claims.Subject),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Authenticate validates a session token and returns its user id. Tokens
// issued before the user's last password change are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", models.NewAuthError(msgUnauthorized)
	}
	claims, err := s.parse(token, purposeSession)
	if err != nil {
		return "", models.NewAuthError(msgUnauthorized)
	}

	revoked, err := s.cache.IsRevoked(ctx, claims.ID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "revocation check failed", slog.String("error", err.Error()))
	}
	if revoked {
		return "", models.NewAuthError(msgUnauthorized)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return "", models.NewAuthError(msgUnauthorized)
	}
	if claims.IssuedAt == nil || claims.IssuedAt.Unix() < user.PasswordModifiedAt {
		return "", models.NewAuthError("Token expired!")
	}
	return user.IDHex(), nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.issue(user, purposeSession, s.cfg.JWTExpiresIn)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{User: user, Token: token}, nil
}

func (s *AuthService) issue(user *models.User, purpose string, ttl time.Duration) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", errors.New("JWT secret not configured")
	}
	now := s.now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.IDHex(),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) parse(token, purpose string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q, want %q", claims.Purpose, purpose)
	}
	return claims, nil
}
