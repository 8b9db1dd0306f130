package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/handlers"
)

func registerExtensionRoutes(api *gin.RouterGroup, handler *handlers.ExtensionHandler, syncLimit gin.HandlerFunc) {
	api.GET("/extension-settings", handler.GetSettings)
	api.POST("/extension-settings", handler.SaveSettings)

	ext := api.Group("/extension")
	{
		ext.GET("/status", handler.Status)
		ext.POST("/sync", syncLimit, handler.Sync)
	}
}
