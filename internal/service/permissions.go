package service

import (
	"context"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/resolver"
)

// GrantStore is the durable record of approved API origins.
type GrantStore interface {
	IsGranted(ctx context.Context, origin string) (bool, error)
	Grant(ctx context.Context, origin string) error
	Revoke(ctx context.Context, origin string) error
}

// OriginPrompter asks the user to approve network access to an origin.
// The production implementation routes the prompt to the options surface
// over its WebSocket connection; an unanswered prompt counts as refused.
type OriginPrompter interface {
	PromptOrigin(ctx context.Context, origin string) (bool, error)
}

// PermissionService gates outbound network access by origin. Checks and
// requests are idempotent and keyed by scheme://host, never by full URL.
type PermissionService struct {
	grants   GrantStore
	prompter OriginPrompter
}

func NewPermissionService(grants GrantStore, prompter OriginPrompter) *PermissionService {
	return &PermissionService{grants: grants, prompter: prompter}
}

// HasAPIHostPermission reports whether the origin of apiURL is granted.
// Reading never mutates permission state.
func (s *PermissionService) HasAPIHostPermission(ctx context.Context, apiURL string) (bool, error) {
	origin := resolver.Origin(apiURL)
	if origin == "" {
		return false, nil
	}
	return s.grants.IsGranted(ctx, origin)
}

// RequestAPIHostPermission ensures the origin of apiURL is granted, prompting
// the user when it is not. A refused prompt leaves the store untouched.
func (s *PermissionService) RequestAPIHostPermission(ctx context.Context, apiURL string) (bool, error) {
	origin := resolver.Origin(apiURL)
	if origin == "" {
		return false, nil
	}

	granted, err := s.grants.IsGranted(ctx, origin)
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	approved, err := s.prompter.PromptOrigin(ctx, origin)
	if err != nil || !approved {
		return false, err
	}
	if err := s.grants.Grant(ctx, origin); err != nil {
		return false, err
	}
	return true, nil
}
