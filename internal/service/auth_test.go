package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
)

type fakeSessionStore struct {
	tokens map[string]string // hash -> surface
}

func (f *fakeSessionStore) StoreRefreshToken(ctx context.Context, surface, tokenHash string, expiresAt time.Time) error {
	if f.tokens == nil {
		f.tokens = map[string]string{}
	}
	f.tokens[tokenHash] = surface
	return nil
}

func (f *fakeSessionStore) ValidateRefreshToken(ctx context.Context, tokenHash string) (string, error) {
	surface, ok := f.tokens[tokenHash]
	if !ok {
		return "", errors.New("no rows")
	}
	return surface, nil
}

func (f *fakeSessionStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	delete(f.tokens, tokenHash)
	return nil
}

func TestPairAndValidate(t *testing.T) {
	svc, err := NewAuthService(&fakeSessionStore{}, "pairing-code", "jwt-secret-for-tests")
	if err != nil {
		t.Fatal(err)
	}

	resp, err := svc.Pair(context.Background(), model.SurfacePopup, "pairing-code")
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	surface, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if surface != model.SurfacePopup {
		t.Errorf("surface = %q", surface)
	}
}

func TestPairRejectsBadCodeAndSurface(t *testing.T) {
	svc, err := NewAuthService(&fakeSessionStore{}, "pairing-code", "jwt-secret-for-tests")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := svc.Pair(ctx, model.SurfacePopup, "wrong"); !errors.Is(err, ErrInvalidPairingCode) {
		t.Errorf("err = %v, want ErrInvalidPairingCode", err)
	}
	if _, err := svc.Pair(ctx, "tiktok", "pairing-code"); !errors.Is(err, ErrUnknownSurface) {
		t.Errorf("err = %v, want ErrUnknownSurface", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	store := &fakeSessionStore{}
	svc, err := NewAuthService(store, "pairing-code", "jwt-secret-for-tests")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	resp, err := svc.Pair(ctx, model.SurfaceOptions, "pairing-code")
	if err != nil {
		t.Fatal(err)
	}

	pair, err := svc.Refresh(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.RefreshToken == resp.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The original token is single-use.
	if _, err := svc.Refresh(ctx, resp.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken for reused token", err)
	}
}
