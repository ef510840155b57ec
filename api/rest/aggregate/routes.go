package aggregate

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, limit gin.HandlerFunc) {
	router.POST("/aggregate", limit, Handler)
}
