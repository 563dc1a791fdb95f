package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/francosolari/nba-props-board/leaderboard"
	"github.com/francosolari/nba-props-board/metrics"
	"github.com/francosolari/nba-props-board/services"
)

type WebSocketHandler struct {
	hub      *leaderboard.Hub
	seasons  services.SeasonService
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *leaderboard.Hub, seasons services.SeasonService, allowedOrigins []string) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &WebSocketHandler{
		hub:     hub,
		seasons: seasons,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 || origins["*"] {
					return true
				}
				return origins[r.Header.Get("Origin")]
			},
		},
	}
}

// ServeWs subscribes a socket to a season's room. Connected viewers
// get a refetch nudge whenever that season's leaderboard moves.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	slug, err := getSlugFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.seasons.BySlug(r.Context(), slug); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.Debug("websocket upgrade failed", "season", slug, "error", err)
		return
	}

	h.hub.Join(conn, slug)
	metrics.WebsocketJoins.Inc()
}
