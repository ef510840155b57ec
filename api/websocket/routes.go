package websocket

import (
	"github.com/gin-gonic/gin"

	ws "codeberg.org/citelens/server/internal/websocket"
)

func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, store ReportGetter, checkOrigin OriginChecker) {
	router.GET("/analyses/:id/ws", WebSocketHandler(hub, store, checkOrigin))
}
