package handler

import (
	"net/http"

	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/infrastructure/realtime"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSHandler upgrades authenticated clients to the realtime event stream
type WSHandler struct {
	hub        *realtime.Hub
	verifier   *middleware.TokenVerifier
	principals middleware.PrincipalResolver
	upgrader   websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, verifier *middleware.TokenVerifier, principals middleware.PrincipalResolver) *WSHandler {
	return &WSHandler{
		hub:        hub,
		verifier:   verifier,
		principals: principals,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Connect handles GET /ws?token=
// @Summary Realtime events
// @Description Browsers cannot set headers on a WebSocket handshake, so the token travels in the query
// @Tags realtime
// @Param token query string true "Bearer token"
// @Router /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	clerkID, err := h.verifier.Verify(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		return
	}
	user, err := h.principals.ResolvePrincipal(c.Request.Context(), clerkID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := realtime.NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
