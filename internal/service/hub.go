package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/resolver"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// SurfaceClient is one connected extension surface: a page script
// (youtube/tiktok/twitter) or the options page.
type SurfaceClient struct {
	Conn    *websocket.Conn
	Surface string
	TabID   string
	PageURL string
	Send    chan []byte

	lastSeen time.Time
}

// SurfaceHub tracks connected surfaces and routes bridge-initiated traffic
// to them: toasts to page surfaces, permission prompts to the options
// surface, and correlated active-media queries to the active page.
type SurfaceHub struct {
	clients    map[*SurfaceClient]bool
	register   chan *SurfaceClient
	unregister chan *SurfaceClient
	mu         sync.RWMutex
	done       chan struct{}

	pending   map[string]chan []byte
	pendingMu sync.Mutex

	activeMu       sync.RWMutex
	activeMediaURL string
	rescan         *Coalescer
}

func NewSurfaceHub() *SurfaceHub {
	h := &SurfaceHub{
		clients:    make(map[*SurfaceClient]bool),
		register:   make(chan *SurfaceClient),
		unregister: make(chan *SurfaceClient),
		done:       make(chan struct{}),
		pending:    make(map[string]chan []byte),
	}
	h.rescan = NewCoalescer(200*time.Millisecond, h.refreshActiveMedia)
	return h
}

func (h *SurfaceHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WS: surface %s connected (total: %d)", client.Surface, total)
			h.rescan.Trigger()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WS: surface %s disconnected (total: %d)", client.Surface, total)
			h.rescan.Trigger()

		case <-h.done:
			return
		}
	}
}

func (h *SurfaceHub) Shutdown() {
	h.rescan.Stop()
	close(h.done)
}

func (h *SurfaceHub) Register(client *SurfaceClient) {
	client.lastSeen = time.Now()
	h.register <- client
}

func (h *SurfaceHub) Unregister(client *SurfaceClient) {
	h.unregister <- client
}

// Touch marks a client as recently active; the most recently active page
// surface stands in for the browser's active tab.
func (h *SurfaceHub) Touch(client *SurfaceClient) {
	h.mu.Lock()
	client.lastSeen = time.Now()
	h.mu.Unlock()
	h.rescan.Trigger()
}

// SendToastToTab delivers a toast to every page surface of the given tab.
// A tab with no connected surface is a silent no-op.
func (h *SurfaceHub) SendToastToTab(tabID, level, message string) {
	if tabID == "" {
		return
	}
	payload, err := json.Marshal(model.ShowToastMessage{
		Type:    model.MessageShowToast,
		Level:   level,
		Message: message,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.TabID != tabID || client.Surface == model.SurfaceOptions {
			continue
		}
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// QueryActiveMediaURL asks the active page surface for its current media URL
// and falls back to that surface's page URL when the round-trip fails. The
// returned string is resolver-normalized; "" means no usable target.
func (h *SurfaceHub) QueryActiveMediaURL(ctx context.Context) string {
	client := h.activeClient()
	if client == nil {
		return ""
	}

	fallback := resolver.ResolveIngestTargetURL(client.PageURL, "")

	id := uuid.NewString()
	payload, err := json.Marshal(model.GetActiveMediaURLRequest{
		ID:   id,
		Type: model.MessageGetActiveMediaURL,
	})
	if err != nil {
		return fallback
	}

	reply := h.addPending(id)
	defer h.removePending(id)

	if !h.trySend(client, payload) {
		return fallback
	}

	select {
	case raw := <-reply:
		var resp model.ActiveMediaURLResponse
		if err := json.Unmarshal(raw, &resp); err != nil || !resp.OK {
			return fallback
		}
		if resolved := resolver.ResolveIngestTargetURL(resp.URL, ""); resolved != "" {
			return resolved
		}
		return fallback
	case <-ctx.Done():
		return fallback
	}
}

// PromptOrigin forwards a permission request to the options surface and
// waits for the user's answer. No connected options surface, a timeout or a
// malformed reply all count as refusal.
func (h *SurfaceHub) PromptOrigin(ctx context.Context, origin string) (bool, error) {
	client := h.optionsClient()
	if client == nil {
		return false, nil
	}

	id := uuid.NewString()
	payload, err := json.Marshal(model.PermissionRequestMessage{
		ID:     id,
		Type:   model.MessagePermissionRequest,
		Origin: origin,
	})
	if err != nil {
		return false, err
	}

	reply := h.addPending(id)
	defer h.removePending(id)

	if !h.trySend(client, payload) {
		return false, nil
	}

	select {
	case raw := <-reply:
		var resp struct {
			Granted bool `json:"granted"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return false, nil
		}
		return resp.Granted, nil
	case <-ctx.Done():
		return false, nil
	}
}

// ResolveReply hands a correlated reply frame to its waiter. Returns false
// when no query with this id is pending (stale or unknown reply).
func (h *SurfaceHub) ResolveReply(id string, raw []byte) bool {
	h.pendingMu.Lock()
	reply, ok := h.pending[id]
	h.pendingMu.Unlock()
	if !ok {
		return false
	}
	select {
	case reply <- raw:
	default:
	}
	return true
}

// CachedActiveMediaURL returns the last coalesced rescan result.
func (h *SurfaceHub) CachedActiveMediaURL() string {
	h.activeMu.RLock()
	defer h.activeMu.RUnlock()
	return h.activeMediaURL
}

func (h *SurfaceHub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *SurfaceHub) refreshActiveMedia() {
	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()
	resolved := h.QueryActiveMediaURL(ctx)

	h.activeMu.Lock()
	h.activeMediaURL = resolved
	h.activeMu.Unlock()
}

func (h *SurfaceHub) activeClient() *SurfaceClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var latest *SurfaceClient
	for client := range h.clients {
		if client.Surface == model.SurfaceOptions || client.Surface == model.SurfacePopup {
			continue
		}
		if latest == nil || client.lastSeen.After(latest.lastSeen) {
			latest = client
		}
	}
	return latest
}

func (h *SurfaceHub) optionsClient() *SurfaceClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var latest *SurfaceClient
	for client := range h.clients {
		if client.Surface != model.SurfaceOptions {
			continue
		}
		if latest == nil || client.lastSeen.After(latest.lastSeen) {
			latest = client
		}
	}
	return latest
}

// trySend delivers a frame to a client's send channel without blocking. The
// membership check and the send happen under the registry lock; the run loop
// closes Send inside the same lock, so a client still in the map cannot have
// a closed channel.
func (h *SurfaceHub) trySend(client *SurfaceClient, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	select {
	case client.Send <- payload:
		return true
	default:
		return false
	}
}

func (h *SurfaceHub) addPending(id string) chan []byte {
	reply := make(chan []byte, 1)
	h.pendingMu.Lock()
	h.pending[id] = reply
	h.pendingMu.Unlock()
	return reply
}

func (h *SurfaceHub) removePending(id string) {
	h.pendingMu.Lock()
	delete(h.pending, id)
	h.pendingMu.Unlock()
}
