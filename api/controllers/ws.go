package controllers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mfigueroa/shopsync-backend/internal/realtime"
	"github.com/mfigueroa/shopsync-backend/pkg/config"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
)

// WebSocket upgrades the request and hands the connection to the hub. The
// socket starts unauthenticated; the client must send an authenticate frame
// before any cart traffic flows.
func WebSocket(hub *realtime.Hub, cfg config.RealtimeConfig, logg *logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// browser origin policy is enforced at the token level:
			// unauthenticated sockets can only ping
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			if logg != nil {
				logg.Warn(r.Context(), "websocket upgrade failed")
			}
			return
		}

		conn := realtime.NewConn(hub, sock, cfg)
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithConnectionID(ctx, conn.ID())
			logg.Info(ctx, "websocket connected")
		}
		conn.Run(ctx)
		if logg != nil {
			logg.Info(ctx, "websocket disconnected")
		}
	}
}
