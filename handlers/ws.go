package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/jmorrell/taskdeck/services"
)

// WSHandler upgrades authenticated requests to the live event feed.
type WSHandler struct {
	hub *services.Hub
}

func NewWSHandler(hub *services.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket upgrades the HTTP connection to a WebSocket connection
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	client := &services.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: user.ID,
	}

	h.hub.Register(client)
	log.Printf("WebSocket client registered: %s", user.Username)

	go client.WritePump()
	go client.ReadPump()
}
