package service

import (
	"context"
	"errors"
	"time"

	"sales-service/internal/apperror"
	"sales-service/internal/model"
	"sales-service/internal/repository"
	"sales-service/pkg/jwtutil"
	"sales-service/pkg/logger"
	"sales-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	invalidCredentials = "Invalid email or password."
	emailTaken         = "The email has already been taken."
	unauthenticated    = "Unauthenticated."
)

// SignupInput is the payload of POST /auth/signup
type SignupInput struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// LoginInput is the payload of POST /auth/login. It carries no validation
// tags: any mismatch, malformed input included, is a 401.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is the bearer token handed to clients
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthService registers operators and issues their tokens
type AuthService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	jwt    *jwtutil.JWTUtil
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, jwt *jwtutil.JWTUtil) *AuthService {
	return &AuthService{users: users, tokens: tokens, jwt: jwt}
}

// Signup creates the user and logs them in
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Token, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordAuthAttempt("signup")

	taken, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, apperror.Internal("Failed to create user.", err)
	}
	if taken {
		prometheus.RecordAuthError("email_taken")
		return nil, apperror.FieldError("email", emailTaken)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("Failed to create user.", err)
	}

	user := &model.User{Name: in.Name, Email: in.Email, Password: string(hashed)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			prometheus.RecordAuthError("email_taken")
			return nil, apperror.FieldError("email", emailTaken)
		}
		return nil, apperror.Internal("Failed to create user.", err)
	}
	log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("email", user.Email))

	return s.issue(user)
}

// Login checks the credentials and issues a token
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Token, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordAuthAttempt("login")

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Login with unknown email", zap.String("email", in.Email))
			prometheus.RecordAuthError("unknown_email")
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, apperror.Internal("Failed to log in.", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		log.Warn("Login with wrong password", zap.Uint("user_id", user.ID))
		prometheus.RecordAuthError("invalid_password")
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	log.Info("User logged in", zap.Uint("user_id", user.ID))
	return s.issue(user)
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized(unauthenticated)
		}
		return nil, apperror.Internal("Failed to load user.", err)
	}
	return user, nil
}

// Logout revokes the presented token; revoking it twice is not an error
func (s *AuthService) Logout(ctx context.Context, claims *jwtutil.UserClaims) error {
	prometheus.RecordAuthAttempt("logout")
	if _, err := s.revoke(ctx, claims); err != nil {
		return apperror.Internal("Failed to log out.", err)
	}
	logger.FromContext(ctx).Info("User logged out", zap.Uint("user_id", claims.UserID))
	return nil
}

// Refresh swaps the presented token for a new one. Only the request that
// actually revokes the token gets a replacement.
func (s *AuthService) Refresh(ctx context.Context, claims *jwtutil.UserClaims) (*Token, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordAuthAttempt("refresh")

	user, err := s.Me(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoke(ctx, claims)
	if err != nil {
		return nil, apperror.Internal("Failed to refresh token.", err)
	}
	if !revoked {
		log.Warn("Token refreshed twice", zap.Uint("user_id", user.ID), zap.String("jti", claims.ID))
		prometheus.RecordAuthError("token_reused")
		return nil, apperror.Unauthorized(unauthenticated)
	}
	log.Info("Token refreshed", zap.Uint("user_id", user.ID))
	return s.issue(user)
}

func (s *AuthService) revoke(ctx context.Context, claims *jwtutil.UserClaims) (bool, error) {
	expiresAt := time.Now().Add(s.jwt.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.tokens.Revoke(ctx, &model.RevokedToken{
		ID:        claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: expiresAt,
	})
}

func (s *AuthService) issue(user *model.User) (*Token, error) {
	signed, _, err := s.jwt.GenerateToken(user.Email, user.ID)
	if err != nil {
		return nil, apperror.Internal("Failed to generate token.", err)
	}
	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.jwt.TTL().Seconds()),
	}, nil
}
