package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/repos"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/utils"
)

type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FullName         string `json:"full_name"`
	Interest         string `json:"interest"`
	ProficiencyLevel string `json:"proficiency_level"`
	GradeLevel       string `json:"grade_level"`
}

type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         *types.User `json:"user,omitempty"`
}

// AuthService issues stateless JWT access tokens and stored, revocable
// refresh tokens.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenPair, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	// ParseAccessToken validates a bearer token and returns the user id.
	ParseAccessToken(token string) (uuid.UUID, error)
}

type authService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	tokenRepo  repos.UserTokenRepo
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, tokenRepo repos.UserTokenRepo) (AuthService, error) {
	slog := log.With("service", "AuthService")
	secret := utils.GetEnv("JWT_SECRET", "", slog)
	if secret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}
	return &authService{
		log:        slog,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtSecret:  []byte(secret),
		accessTTL:  time.Duration(utils.GetEnvAsInt("JWT_ACCESS_TTL_MINUTES", 30, slog)) * time.Minute,
		refreshTTL: time.Duration(utils.GetEnvAsInt("JWT_REFRESH_TTL_HOURS", 24*14, slog)) * time.Hour,
	}, nil
}

func (as *authService) Register(ctx context.Context, req RegisterRequest) (*TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email required")
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := as.userRepo.Create(ctx, nil, &types.User{
		Email:            email,
		PasswordHash:     string(hash),
		FullName:         req.FullName,
		Interest:         req.Interest,
		ProficiencyLevel: req.ProficiencyLevel,
		GradeLevel:       req.GradeLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	as.log.Info("User registered", "user_id", user.ID)
	return as.issueTokens(ctx, user)
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := as.userRepo.GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return as.issueTokens(ctx, user)
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := as.tokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if stored == nil || stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, fmt.Errorf("invalid refresh token")
	}

	user, err := as.userRepo.GetByID(ctx, nil, stored.UserID)
	if err != nil || user == nil {
		return nil, fmt.Errorf("invalid refresh token")
	}

	// Rotate: the presented token is single-use.
	if err := as.tokenRepo.Revoke(ctx, nil, stored.ID); err != nil {
		return nil, fmt.Errorf("revoke token: %w", err)
	}
	return as.issueTokens(ctx, user)
}

func (as *authService) Logout(ctx context.Context, refreshToken string) error {
	stored, err := as.tokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if stored == nil {
		return nil
	}
	return as.tokenRepo.Revoke(ctx, nil, stored.ID)
}

func (as *authService) ParseAccessToken(token string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject")
	}
	return userID, nil
}

func (as *authService) issueTokens(ctx context.Context, user *types.User) (*TokenPair, error) {
	now := time.Now()
	expires := now.Add(as.accessTTL)
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if _, err := as.tokenRepo.Create(ctx, nil, &types.UserToken{
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(as.refreshTTL),
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expires,
		User:         user,
	}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
