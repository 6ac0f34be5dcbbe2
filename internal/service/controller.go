package service

import (
	"context"
	"log"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/resolver"
)

// DraftStore is the single-slot compose draft mailbox.
type DraftStore interface {
	Get(ctx context.Context) (*model.ComposeDraft, error)
	Set(ctx context.Context, d *model.ComposeDraft) error
	Clear(ctx context.Context) error
}

// IngestSender issues the single outbound request for an action.
type IngestSender interface {
	Send(ctx context.Context, mode, targetURL, text string, forceRefresh bool) IngestResult
}

// SurfaceNotifier reaches connected page surfaces: toast delivery and the
// active-media fallback query.
type SurfaceNotifier interface {
	SendToastToTab(tabID, level, message string)
	QueryActiveMediaURL(ctx context.Context) string
	CachedActiveMediaURL() string
}

// Context-menu action kinds.
const (
	ContextActionQuick   = "quick"
	ContextActionCompose = "compose"
)

const activeMediaQueryTimeout = 1500 * time.Millisecond

// Controller is the background dispatcher: it validates inbound requests,
// drives the ingest client, owns the compose-draft lifecycle and maps every
// outcome to a typed response. It is the only writer of the draft slot.
type Controller struct {
	settings *SettingsService
	drafts   DraftStore
	ingest   IngestSender
	surfaces SurfaceNotifier
}

func NewController(settings *SettingsService, drafts DraftStore, ingest IngestSender, surfaces SurfaceNotifier) *Controller {
	return &Controller{settings: settings, drafts: drafts, ingest: ingest, surfaces: surfaces}
}

// HandleMessage dispatches one decoded inbound frame. Anything outside the
// known request variants yields the generic unsupported response.
func (c *Controller) HandleMessage(ctx context.Context, raw []byte) any {
	msg, ok := model.DecodeMessage(raw)
	if !ok {
		return unsupportedResponse()
	}

	switch m := msg.(type) {
	case *model.SendQuickRequest:
		return c.SendQuick(ctx, m.URL)
	case *model.SendComposeRequest:
		return c.SendCompose(ctx, m.URL, m.Text, m.ForceRefresh)
	case *model.GetComposeStateRequest:
		return c.ComposeState(ctx)
	default:
		return unsupportedResponse()
	}
}

// SendQuick forwards a URL-only action to the ingest endpoint.
func (c *Controller) SendQuick(ctx context.Context, rawURL string) model.ActionResponse {
	normalized := resolver.ResolveIngestTargetURL(rawURL, "")
	if normalized == "" {
		return invalidURLResponse()
	}
	return responseFromResult(c.ingest.Send(ctx, model.ModeQuick, normalized, "", false))
}

// SendCompose forwards a URL+text action. The pending draft is cleared
// exactly once, after a successful send, so it cannot resurface in the
// popup.
func (c *Controller) SendCompose(ctx context.Context, rawURL, text string, forceRefresh bool) model.ActionResponse {
	normalized := resolver.ResolveIngestTargetURL(rawURL, "")
	if normalized == "" {
		return invalidURLResponse()
	}

	result := c.ingest.Send(ctx, model.ModeCompose, normalized, text, forceRefresh)
	if result.OK {
		if err := c.drafts.Clear(ctx); err != nil {
			log.Printf("controller: clear draft: %v", err)
		}
	}
	return responseFromResult(result)
}

// ComposeState assembles the popup's initial form state: the pending draft
// when one exists, otherwise the active surface's resolvable media URL.
func (c *Controller) ComposeState(ctx context.Context) model.ComposeStateResponse {
	draft, err := c.drafts.Get(ctx)
	if err != nil {
		log.Printf("controller: read draft: %v", err)
		draft = nil
	}

	settings, err := c.settings.Get(ctx)
	if err != nil {
		log.Printf("controller: read settings: %v", err)
	}
	hasSettings := settings.Complete()

	state := model.ComposeStateResponse{
		OK:          true,
		HasSettings: hasSettings,
	}
	if !hasSettings {
		message := "Configuration incomplète. Ouvre les options de l’extension."
		state.SettingsError = &message
	}

	if draft != nil {
		state.URL = draft.URL
		state.Text = draft.Text
		state.ForceRefresh = draft.ForceRefresh
		source := draft.Source
		state.DraftSource = &source
		return state
	}

	// The coalesced rescan usually has the answer already; only go over the
	// wire when the cache is empty.
	state.URL = c.surfaces.CachedActiveMediaURL()
	if state.URL == "" {
		queryCtx, cancel := context.WithTimeout(ctx, activeMediaQueryTimeout)
		defer cancel()
		state.URL = c.surfaces.QueryActiveMediaURL(queryCtx)
	}
	return state
}

// HandleContextAction processes a context-menu activation: pick the first
// resolvable candidate, then either send immediately (quick) or park a
// draft for the popup (compose). Outcomes are toasted back to the tab.
func (c *Controller) HandleContextAction(ctx context.Context, action string, candidates resolver.Candidates, tabID string) model.ActionResponse {
	target := resolver.ResolveFromCandidates(candidates)
	if target == "" {
		c.surfaces.SendToastToTab(tabID, model.ToastError, "Impossible de déterminer l’URL à envoyer.")
		return invalidURLResponse()
	}

	switch action {
	case ContextActionQuick:
		resp := c.SendQuick(ctx, target)
		level := model.ToastError
		if resp.OK {
			level = model.ToastSuccess
		}
		c.surfaces.SendToastToTab(tabID, level, resp.Message)
		return resp

	case ContextActionCompose:
		draft := &model.ComposeDraft{
			URL:       target,
			Source:    model.SourceContextMenu,
			CreatedAt: time.Now(),
		}
		if err := c.drafts.Set(ctx, draft); err != nil {
			log.Printf("controller: set draft: %v", err)
			return model.ActionResponse{
				OK:        false,
				Message:   "Impossible d’enregistrer le brouillon.",
				ErrorCode: string(model.FailureUnknown),
			}
		}
		c.surfaces.SendToastToTab(tabID, model.ToastInfo, "Clique sur l’icône de l’extension pour ouvrir le formulaire.")
		return model.ActionResponse{
			OK:      true,
			Message: "Brouillon enregistré. Ouvre le popup pour compléter.",
		}

	default:
		return model.ActionResponse{
			OK:        false,
			Message:   "Action de menu contextuel inconnue.",
			ErrorCode: string(model.FailureUnknown),
		}
	}
}

func responseFromResult(result IngestResult) model.ActionResponse {
	if result.OK {
		resp := model.ActionResponse{OK: true, Message: result.Message}
		if result.JobID != "" {
			jobID := result.JobID
			resp.JobID = &jobID
		}
		return resp
	}
	return model.ActionResponse{
		OK:        false,
		Message:   result.Failure.Message,
		ErrorCode: string(result.Failure.Code),
	}
}

func invalidURLResponse() model.ActionResponse {
	return model.ActionResponse{
		OK:        false,
		Message:   "URL invalide ou non supportée.",
		ErrorCode: string(model.FailureInvalidPayload),
	}
}

func unsupportedResponse() model.ActionResponse {
	return model.ActionResponse{
		OK:        false,
		Message:   "Message runtime non supporté.",
		ErrorCode: string(model.FailureUnknown),
	}
}
