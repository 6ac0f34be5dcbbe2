package handler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const readDeadline = 60 * time.Second

type WSHandler struct {
	hub        *service.SurfaceHub
	authSvc    *service.AuthService
	controller *service.Controller
}

func NewWSHandler(hub *service.SurfaceHub, authSvc *service.AuthService, controller *service.Controller) *WSHandler {
	return &WSHandler{hub: hub, authSvc: authSvc, controller: controller}
}

// Surfaces allowed on the WS channel: the page scripts plus the options
// page. Anything else must not register, or it would pollute the
// active-tab stand-in.
var wsSources = map[string]bool{
	model.SourceYouTube:  true,
	model.SourceTikTok:   true,
	model.SourceTwitter:  true,
	model.SurfaceOptions: true,
}

func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(401).JSON(fiber.Map{"error": "token required"})
	}
	if _, err := h.authSvc.ValidateAccessToken(token); err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
	}

	source := c.Query("source")
	if !wsSources[source] {
		return c.Status(400).JSON(fiber.Map{"error": "unknown source"})
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	c.Locals("surface", source)
	c.Locals("tab_id", c.Query("tab"))
	c.Locals("page_url", c.Query("page"))
	return websocket.New(h.handleConnection)(c)
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	surface, _ := c.Locals("surface").(string)
	tabID, _ := c.Locals("tab_id").(string)
	pageURL, _ := c.Locals("page_url").(string)

	client := &service.SurfaceClient{
		Conn:    c,
		Surface: surface,
		TabID:   tabID,
		PageURL: pageURL,
		Send:    make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	// Writer goroutine
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	c.SetReadDeadline(time.Now().Add(readDeadline))
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			break
		}

		c.SetReadDeadline(time.Now().Add(readDeadline))
		h.hub.Touch(client)
		h.handleFrame(client, raw)
	}
}

// handleFrame routes one inbound frame: transport keepalives and correlated
// replies are consumed here; everything else goes through the message
// protocol and gets a response frame back, echoing the sender's id when one
// was provided.
func (h *WSHandler) handleFrame(client *service.SurfaceClient, raw []byte) {
	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.reply(client, "", h.controller.HandleMessage(context.Background(), raw))
		return
	}

	if envelope.Type == "ping" {
		pong, _ := json.Marshal(map[string]string{"type": "pong"})
		h.send(client, pong)
		return
	}

	// A frame carrying the id of a pending bridge-initiated query is that
	// query's reply, not a new request.
	if envelope.ID != "" && h.hub.ResolveReply(envelope.ID, raw) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	h.reply(client, envelope.ID, h.controller.HandleMessage(ctx, raw))
}

func (h *WSHandler) reply(client *service.SurfaceClient, id string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WS: marshal reply: %v", err)
		return
	}

	if id != "" {
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err == nil {
			fields["id"] = id
			if withID, err := json.Marshal(fields); err == nil {
				data = withID
			}
		}
	}
	h.send(client, data)
}

func (h *WSHandler) send(client *service.SurfaceClient, data []byte) {
	select {
	case client.Send <- data:
	default:
	}
}
