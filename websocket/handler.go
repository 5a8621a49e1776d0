package websocket

import (
	"context"
	"time"

	"homestay-registration-backend/config"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/middleware"
	"homestay-registration-backend/token"
	"homestay-registration-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// ApplicationAccess decides whether actor may watch an application.
type ApplicationAccess interface {
	GetApplication(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Application, error)
}

// WsHandler upgrades authorised requests to live status feeds.
type WsHandler struct {
	hub    *Hub
	access ApplicationAccess
}

func NewWsHandler(hub *Hub, access ApplicationAccess) *WsHandler {
	return &WsHandler{hub: hub, access: access}
}

// StatusFeedRouterInit registers GET /ws/applications/:id.
func StatusFeedRouterInit(app *fiber.App, tokenMaker token.Maker, h *WsHandler) {
	app.Get("/ws/applications/:id", middleware.RequireActor(tokenMaker), h.HandleWebSocket)
}

// HandleWebSocket checks the caller may see the application, then streams
// its status changes until either side closes.
func (h *WsHandler) HandleWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	applicationID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if _, err := h.access.GetApplication(c.UserContext(), applicationID, actor); err != nil {
		return utils.RespondError(c, err)
	}

	config.Logger.Info("Status feed authenticated",
		zap.String("userID", actor.UserID.String()),
		zap.String("applicationID", applicationID.String()))

	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{
			ID:            uuid.New(),
			UserID:        actor.UserID,
			ApplicationID: applicationID,
			Conn:          conn,
			Hub:           h.hub,
			Send:          make(chan WebSocketMessage, 32),
		}
		if !h.hub.Register(client) {
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump()
	})(c)
}

// readPump keeps the connection alive and detects disconnects. The feed is
// one-way; anything the client sends is discarded.
func (c *Client) readPump() {
	defer func() {
		config.Logger.Info("Status feed disconnecting",
			zap.String("clientID", c.ID.String()),
			zap.String("userID", c.UserID.String()))
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4 * 1024)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				config.Logger.Warn("Status feed unexpected close",
					zap.String("clientID", c.ID.String()),
					zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				config.Logger.Debug("Status feed write error",
					zap.String("clientID", c.ID.String()),
					zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
