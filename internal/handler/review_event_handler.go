package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/auth"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
)

// ReviewEventHandler streams review outcomes to the submitter over a websocket.
type ReviewEventHandler struct {
	events       service.ReviewEventService
	logger       zerolog.Logger
	pingInterval time.Duration
}

// NewReviewEventHandler constructs the websocket handler.
func NewReviewEventHandler(events service.ReviewEventService, logger zerolog.Logger, pingInterval time.Duration) *ReviewEventHandler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &ReviewEventHandler{
		events:       events,
		logger:       logger.With().Str("component", "review_event_handler").Logger(),
		pingInterval: pingInterval,
	}
}

// Register binds the websocket route under the provided router group.
func (h *ReviewEventHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *ReviewEventHandler) handleConnection(conn *websocket.Conn) {
	principal, _ := conn.Locals(middleware.PrincipalLocal).(auth.Principal)
	if !principal.Authenticated() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication required"))
		_ = conn.Close()
		return
	}

	logger := h.logger.With().
		Str("user_id", principal.ID).
		Str("correlation_id", correlationFromConn(conn)).
		Logger()

	events, cancel := h.events.Subscribe(principal.ID)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	if err := conn.WriteJSON(fiber.Map{"type": "subscribed", "data": fiber.Map{"userId": principal.ID}}); err != nil {
		return
	}

	logger.Info().Msg("review event stream connected")
	defer logger.Info().Msg("review event stream disconnected")

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(fiber.Map{"type": "submission.reviewed", "data": event}); err != nil {
				logger.Debug().Err(err).Msg("failed to write review event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func correlationFromConn(conn *websocket.Conn) string {
	if id, ok := conn.Locals("correlation_id").(string); ok {
		return id
	}
	return ""
}
