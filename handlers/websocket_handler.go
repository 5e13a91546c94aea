package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fixtura/livescore-system/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced by the router; signals carry ids only,
		// so cross-origin reads leak nothing.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeMatch attaches a viewer to a single match topic: /ws/matches/{matchID}
func (h *WebSocketHandler) ServeMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.attach(w, r, live.MatchScope(matchID))
}

// ServePhase attaches a viewer to a phase topic: /ws/phases/{phaseID}
func (h *WebSocketHandler) ServePhase(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.attach(w, r, live.PhaseScope(phaseID))
}

// ServeGroup attaches a viewer to a group topic: /ws/groups/{groupID}
func (h *WebSocketHandler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.attach(w, r, live.GroupScope(groupID))
}

// ServeLiveList attaches a viewer to the live-list topic: /ws/live
func (h *WebSocketHandler) ServeLiveList(w http.ResponseWriter, r *http.Request) {
	h.attach(w, r, live.LiveListScope())
}

func (h *WebSocketHandler) attach(w http.ResponseWriter, r *http.Request, scope live.Scope) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error to the client.
		h.logger.Debug("websocket upgrade failed", slog.String("scope", scope.String()), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, scope, conn, h.logger)
	go client.Run()
}
