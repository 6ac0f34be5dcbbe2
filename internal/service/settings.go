package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/resolver"
)

var ErrInvalidConfig = errors.New("configuration invalide")

// SettingsStore is the durable settings record.
type SettingsStore interface {
	Get(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, s *model.Settings) error
}

// SettingsService owns the settings lifecycle: validation on save, and the
// permission negotiation that must succeed before a new API origin is
// persisted.
type SettingsService struct {
	store SettingsStore
	perms *PermissionService
}

func NewSettingsService(store SettingsStore, perms *PermissionService) *SettingsService {
	return &SettingsService{store: store, perms: perms}
}

func (s *SettingsService) Get(ctx context.Context) (*model.Settings, error) {
	return s.store.Get(ctx)
}

// Normalize trims the input, applies the default author name, validates the
// required fields and canonicalizes the API URL. It returns ErrInvalidConfig
// (wrapped with a user-facing reason) when the input cannot be saved.
func (s *SettingsService) Normalize(input model.Settings) (*model.Settings, error) {
	out := model.Settings{
		APIURL:      strings.TrimSpace(input.APIURL),
		IngestToken: strings.TrimSpace(input.IngestToken),
		GuildID:     strings.TrimSpace(input.GuildID),
		AuthorName:  strings.TrimSpace(input.AuthorName),
	}
	if out.AuthorName == "" {
		out.AuthorName = model.DefaultAuthorName
	}

	if out.APIURL == "" || out.IngestToken == "" || out.GuildID == "" {
		return nil, fmt.Errorf("%w: apiUrl, ingestToken et guildId sont obligatoires", ErrInvalidConfig)
	}

	normalized, err := resolver.NormalizeAPIURL(out.APIURL)
	if err != nil {
		return nil, fmt.Errorf("%w: URL d’API invalide", ErrInvalidConfig)
	}
	out.APIURL = normalized
	return &out, nil
}

// ResolveInput prepares options-form input for use: the token is masked on
// read, so an untouched field comes back empty and inherits the stored one,
// then the whole record is validated with Normalize. Both Save and the
// configuration test probe go through here.
func (s *SettingsService) ResolveInput(ctx context.Context, input model.Settings) (*model.Settings, error) {
	if strings.TrimSpace(input.IngestToken) == "" {
		previous, err := s.store.Get(ctx)
		if err != nil {
			return nil, err
		}
		if previous != nil {
			input.IngestToken = previous.IngestToken
		}
	}
	return s.Normalize(input)
}

// Save validates the input, then runs the permission transition: when the
// API origin changes versus the stored settings, the new origin must be
// granted (checking first, prompting only if missing) before anything is
// persisted. A refused grant aborts the save and returns granted=false with
// the previous settings intact. The previous origin's grant is never revoked
// here.
func (s *SettingsService) Save(ctx context.Context, input model.Settings) (granted bool, err error) {
	normalized, err := s.ResolveInput(ctx, input)
	if err != nil {
		return false, err
	}

	previous, err := s.store.Get(ctx)
	if err != nil {
		return false, err
	}

	newOrigin := resolver.Origin(normalized.APIURL)
	originChanged := previous == nil || resolver.Origin(previous.APIURL) != newOrigin

	if originChanged {
		granted, err = s.perms.RequestAPIHostPermission(ctx, normalized.APIURL)
	} else {
		granted, err = s.perms.HasAPIHostPermission(ctx, normalized.APIURL)
	}
	if err != nil {
		return false, err
	}
	if !granted {
		return false, nil
	}

	if err := s.store.Save(ctx, normalized); err != nil {
		return false, err
	}
	return true, nil
}
