package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/service"

	"github.com/gofiber/fiber/v2"
)

type fakeSessionStore struct {
	tokens map[string]string
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

func TestUpgradeGate(t *testing.T) {
	authSvc, err := service.NewAuthService(&fakeSessionStore{}, "pair-code", "jwt-secret-for-tests")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := authSvc.Pair(context.Background(), model.SurfacePopup, "pair-code")
	if err != nil {
		t.Fatal(err)
	}

	hub := service.NewSurfaceHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	app := fiber.New()
	app.Get("/ws", NewWSHandler(hub, authSvc, nil).Upgrade)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"missing token", "/ws?source=youtube", 401},
		{"bad token", "/ws?token=garbage&source=youtube", 401},
		{"missing source", "/ws?token=" + resp.AccessToken, 400},
		{"unknown source", "/ws?token=" + resp.AccessToken + "&source=reddit", 400},
		{"popup is not a ws surface", "/ws?token=" + resp.AccessToken + "&source=popup", 400},
		{"valid query needs an upgrade", "/ws?token=" + resp.AccessToken + "&source=youtube", fiber.StatusUpgradeRequired},
		{"options surface accepted", "/ws?token=" + resp.AccessToken + "&source=options", fiber.StatusUpgradeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := app.Test(httptest.NewRequest("GET", tt.target, nil))
			if err != nil {
				t.Fatal(err)
			}
			defer res.Body.Close()
			if res.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
		})
	}
}
