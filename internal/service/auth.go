package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPairingCode = errors.New("invalid pairing code")
	ErrUnknownSurface     = errors.New("unknown surface")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const (
	accessTokenDuration  = 15 * time.Minute
	refreshTokenDuration = 30 * 24 * time.Hour
)

// SessionStore persists hashed refresh tokens.
type SessionStore interface {
	StoreRefreshToken(ctx context.Context, surface, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (string, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

// AuthService pairs popup/options surfaces with the bridge. The pairing code
// from configuration is kept only as a bcrypt hash; paired surfaces hold a
// short-lived JWT plus a rotating refresh token.
type AuthService struct {
	sessions    SessionStore
	pairingHash []byte
	jwtSecret   []byte
}

func NewAuthService(sessions SessionStore, pairingCode, jwtSecret string) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pairingCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash pairing code: %w", err)
	}
	return &AuthService{
		sessions:    sessions,
		pairingHash: hash,
		jwtSecret:   []byte(jwtSecret),
	}, nil
}

func (s *AuthService) Pair(ctx context.Context, surface, code string) (*model.AuthResponse, error) {
	if surface != model.SurfacePopup && surface != model.SurfaceOptions {
		return nil, ErrUnknownSurface
	}
	if err := bcrypt.CompareHashAndPassword(s.pairingHash, []byte(code)); err != nil {
		return nil, ErrInvalidPairingCode
	}

	tokens, err := s.generateTokenPair(ctx, surface)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Surface:      surface,
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	tokenHash := hashToken(refreshToken)

	surface, err := s.sessions.ValidateRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// Rotate: the presented token is single-use.
	_ = s.sessions.RevokeRefreshToken(ctx, tokenHash)

	return s.generateTokenPair(ctx, surface)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.RevokeRefreshToken(ctx, hashToken(refreshToken))
}

func (s *AuthService) ValidateAccessToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	surface, _ := claims["sub"].(string)
	if surface == "" {
		return "", ErrInvalidToken
	}
	return surface, nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, surface string) (*model.TokenPair, error) {
	now := time.Now()
	accessClaims := jwt.MapClaims{
		"sub": surface,
		"iat": now.Unix(),
		"exp": now.Add(accessTokenDuration).Unix(),
	}
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessStr, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshStr := hex.EncodeToString(refreshBytes)

	expiresAt := now.Add(refreshTokenDuration)
	if err := s.sessions.StoreRefreshToken(ctx, surface, hashToken(refreshStr), expiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
	}, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
