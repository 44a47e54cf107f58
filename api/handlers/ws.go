package handlers

import (
	"log"
	"net/http"

	"reelgram/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler - точка входа live-канала. Соединение живет до разрыва, каждое
// входящее событие обрабатывается relay-ем; ошибка одного соединения
// не затрагивает остальные.
func WSHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()
	defer services.GlobalRelay.Disconnect(conn)

	_ = conn.WriteJSON(gin.H{"event": "connected"})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("WebSocket read error:", err)
			}
			break
		}
		services.GlobalRelay.HandleRaw(conn, raw)
	}
}
