package handlers

import (
	"net/http"
	"strconv"

	"github.com/coolchillgy/pay/src/config"
	"github.com/coolchillgy/pay/src/logger"
	"github.com/coolchillgy/pay/src/utils"
	"github.com/coolchillgy/pay/src/ws"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if config.Cfg == nil {
		return true
	}
	for _, allowed := range config.Cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// HandleAdminSocket subscribes a connection to the admin oversight channel.
func (h *WSHandler) HandleAdminSocket(w http.ResponseWriter, r *http.Request) {
	h.serveChannel(w, r, ws.AdminChannel)
}

// HandleCompanySocket subscribes a connection to one company's channel.
func (h *WSHandler) HandleCompanySocket(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.PathValue("companyID"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid company id", http.StatusBadRequest)
		return
	}
	h.serveChannel(w, r, ws.CompanyChannel(companyID))
}

// serveChannel upgrades the connection, joins it to the channel and
// holds it open until the transport drops. Inbound frames are keepalive
// only and are discarded.
func (h *WSHandler) serveChannel(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L.Warn("WebSocket upgrade failed", "channel", channel, "remoteAddr", r.RemoteAddr, "error", err)
		return
	}

	h.hub.Join(channel, conn)
	logger.L.Info("Subscriber joined", "channel", channel, "remoteAddr", r.RemoteAddr)

	defer func() {
		h.hub.Leave(channel, conn)
		conn.Close()
		logger.L.Info("Subscriber left", "channel", channel, "remoteAddr", r.RemoteAddr)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
