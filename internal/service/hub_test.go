package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
)

func newRunningHub(t *testing.T) *SurfaceHub {
	t.Helper()
	hub := NewSurfaceHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub
}

func newPageClient(pageURL string) *SurfaceClient {
	return &SurfaceClient{
		Surface: model.SourceYouTube,
		TabID:   "tab-1",
		PageURL: pageURL,
		Send:    make(chan []byte, 8),
	}
}

func TestQueryActiveMediaSurvivesDisconnect(t *testing.T) {
	hub := newRunningHub(t)

	client := newPageClient("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	hub.Register(client)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			hub.QueryActiveMediaURL(ctx)
		}()
	}
	hub.Unregister(client)
	wg.Wait()
}

func TestQueryActiveMediaRoundTrip(t *testing.T) {
	hub := newRunningHub(t)

	client := newPageClient("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	hub.Register(client)
	defer hub.Unregister(client)

	// Play the page surface: answer the query frame through the reply path.
	go func() {
		raw := <-client.Send
		var req model.GetActiveMediaURLRequest
		if err := json.Unmarshal(raw, &req); err != nil || req.ID == "" {
			return
		}
		reply, _ := json.Marshal(model.ActiveMediaURLResponse{
			OK:  true,
			URL: "https://www.tiktok.com/@user/video/123?lang=en",
		})
		// Echo the correlation id the way a surface does.
		var fields map[string]any
		_ = json.Unmarshal(reply, &fields)
		fields["id"] = req.ID
		withID, _ := json.Marshal(fields)
		hub.ResolveReply(req.ID, withID)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got := hub.QueryActiveMediaURL(ctx)
	if got != "https://www.tiktok.com/@user/video/123" {
		t.Errorf("QueryActiveMediaURL() = %q, want canonical reply URL", got)
	}
}

func TestQueryActiveMediaFallsBackToPageURL(t *testing.T) {
	hub := newRunningHub(t)

	client := newPageClient("https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s")
	hub.Register(client)
	defer hub.Unregister(client)

	// No surface answers: the round-trip times out onto the page URL.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got := hub.QueryActiveMediaURL(ctx)
	if got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("QueryActiveMediaURL() = %q, want normalized page URL fallback", got)
	}
}

func TestPromptOriginWithoutOptionsSurface(t *testing.T) {
	hub := newRunningHub(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	granted, err := hub.PromptOrigin(ctx, "https://bot.example.com")
	if err != nil {
		t.Fatalf("PromptOrigin: %v", err)
	}
	if granted {
		t.Error("prompt with no options surface must count as refused")
	}
}
