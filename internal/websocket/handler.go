package websocket

import (
	"log"
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and joins them to the workspace room named by the
// `workspace_id` query parameter.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, err := strconv.ParseInt(r.URL.Query().Get("workspace_id"), 10, 64)
		if err != nil || workspaceID <= 0 {
			http.Error(w, "invalid workspace_id", http.StatusBadRequest)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Mobile webviews connect from app origins
		})
		if err != nil {
			log.Printf("websocket: accept: %v", err)
			return
		}

		client := NewClient(hub, conn, workspaceID)
		client.Run(r.Context())
	}
}
