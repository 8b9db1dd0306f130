package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/handlers"
)

func registerProfileRoutes(api *gin.RouterGroup, handler *handlers.ProfileHandler) {
	api.GET("/me", handler.Me)
	api.GET("/tools", handler.Tools)
}
