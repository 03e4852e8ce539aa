package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldserve/booking-api/config"
	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/repository"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
)

const bcryptCost = 12

// Service authenticates bearer tokens. Verification order: identity-provider
// session token first, then the local signing secret as a fallback for
// service-to-service and legacy tokens. Either way the resolved profile must
// exist and be active; no session state is kept beyond a short identity cache.
type Service struct {
	profileRepo repository.ProfileRepository
	cfg         config.AuthConfig
	identities  *cache.Cache
}

type localClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	TokenUse string `json:"token_use"`
}

func NewService(profileRepo repository.ProfileRepository, cfg config.AuthConfig) *Service {
	return &Service{
		profileRepo: profileRepo,
		cfg:         cfg,
		identities:  cache.New(cfg.IdentityCacheTTL, 2*cfg.IdentityCacheTTL),
	}
}

// VerifyToken resolves a bearer token to an internal identity.
func (s *Service) VerifyToken(ctx context.Context, token string) (*model.Identity, error) {
	key := cacheKey(token)
	if cached, ok := s.identities.Get(key); ok {
		identity := cached.(model.Identity)
		return &identity, nil
	}

	profileID, err := s.verifyWithSecret(token, s.cfg.ProviderSecret)
	if err != nil {
		profileID, err = s.verifyWithSecret(token, s.cfg.LocalSecret)
		if err != nil {
			return nil, apperrors.Unauthorized("invalid token")
		}
	}

	profile, err := s.profileRepo.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Valid token, no usable account.
			return nil, apperrors.Forbidden("account not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	if !profile.IsActive {
		return nil, apperrors.Forbidden("account is inactive")
	}

	identity := model.Identity{
		ProfileID: profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		Role:      profile.Role,
	}
	s.identities.Set(key, identity, cache.DefaultExpiration)
	return &identity, nil
}

func (s *Service) verifyWithSecret(token, secret string) (model.ProfileID, error) {
	if secret == "" {
		return model.ProfileID{}, fmt.Errorf("no secret configured")
	}

	var claims localClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return model.ProfileID{}, fmt.Errorf("invalid token: %w", err)
	}
	if claims.TokenUse == "refresh" {
		return model.ProfileID{}, fmt.Errorf("refresh token used as access token")
	}

	profileID, err := model.ParseProfileID(claims.Subject)
	if err != nil {
		return model.ProfileID{}, fmt.Errorf("invalid subject claim: %w", err)
	}
	return profileID, nil
}

// Login authenticates an email/password pair and issues local tokens.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	if !profile.IsActive {
		return nil, apperrors.Forbidden("account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if err := s.profileRepo.UpdateLastLogin(ctx, profile.ID, time.Now()); err != nil {
		log.Warn().Err(err).Str("profile_id", profile.ID.String()).Msg("failed to update last login")
	}

	return s.issueTokens(profile)
}

// Refresh exchanges a refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	var claims localClaims
	parsed, err := jwt.ParseWithClaims(refreshToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.LocalSecret), nil
	})
	if err != nil || !parsed.Valid || claims.TokenUse != "refresh" {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	profileID, err := model.ParseProfileID(claims.Subject)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	profile, err := s.profileRepo.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Forbidden("account not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	if !profile.IsActive {
		return nil, apperrors.Forbidden("account is inactive")
	}

	return s.issueTokens(profile)
}

func (s *Service) issueTokens(profile *model.Profile) (*model.TokenResponse, error) {
	now := time.Now()

	access, err := s.signToken(profile, "access", now.Add(s.cfg.AccessTokenExpiry))
	if err != nil {
		return nil, apperrors.Internal("TOKEN_GENERATION_FAILED", err)
	}
	refresh, err := s.signToken(profile, "refresh", now.Add(s.cfg.RefreshTokenExpiry))
	if err != nil {
		return nil, apperrors.Internal("TOKEN_GENERATION_FAILED", err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTokenExpiry.Seconds()),
	}, nil
}

func (s *Service) signToken(profile *model.Profile, use string, expiry time.Time) (string, error) {
	claims := localClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Email:    profile.Email,
		Name:     profile.Name,
		Role:     profile.Role,
		TokenUse: use,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.LocalSecret))
}

// HashPassword is used by admin provisioning flows.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
