package ws

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"trip-service/internal/auth"
	"trip-service/internal/observability"
	"trip-service/internal/repositories"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GroupFeedHandler handles group feed websocket connections.
type GroupFeedHandler struct {
	hub        *Hub
	groupRepo  repositories.GroupRepository
	jwtManager *auth.JWTManager
}

// NewGroupFeedHandler constructs a GroupFeedHandler.
func NewGroupFeedHandler(hub *Hub, groupRepo repositories.GroupRepository, jwtManager *auth.JWTManager) *GroupFeedHandler {
	return &GroupFeedHandler{hub: hub, groupRepo: groupRepo, jwtManager: jwtManager}
}

// Handle upgrades the connection and registers the client on the group room.
func (h *GroupFeedHandler) Handle(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("group_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	ctx, span := otel.Tracer("trip-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for group"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddGroupClient(groupID, conn, info)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")

	go func() {
		defer func() {
			h.hub.RemoveGroupClient(groupID, conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}

func (h *GroupFeedHandler) validateToken(header string) (int64, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return 0, auth.ErrMissingToken
	}
	claims, err := h.jwtManager.Validate(parts[1])
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}
