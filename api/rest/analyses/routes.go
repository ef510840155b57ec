package analyses

import (
	"codeberg.org/citelens/server/citelens/reports"
	"codeberg.org/citelens/server/internal/auth"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, store reports.Store, starter JobStarter, authManager *auth.Manager, limit gin.HandlerFunc) {
	router.POST("/analyses", limit, authManager.OptionalMiddleware(), CreateHandler(store, starter))
	router.GET("/analyses/:id", authManager.OptionalMiddleware(), GetHandler(store))
	router.GET("/analyses", authManager.Middleware(), ListHandler(store))
}
