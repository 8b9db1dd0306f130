package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/handlers"
	"github.com/charlesng35/scribekeys/internal/middleware"
)

func registerKeyBindingRoutes(api *gin.RouterGroup, handler *handlers.KeyBindingHandler, denials middleware.DenialRecorder) {
	bindings := api.Group("/key-bindings")
	bindings.Use(middleware.RequireTool("key-bindings", denials))
	{
		bindings.GET("", handler.List)
		bindings.POST("", handler.Create)
		bindings.PUT("/:id", handler.Update)
		bindings.DELETE("/:id", handler.Delete)
	}
}

func registerKeyBindingGroupRoutes(api *gin.RouterGroup, handler *handlers.KeyBindingGroupHandler, denials middleware.DenialRecorder) {
	groups := api.Group("/key-binding-groups")
	groups.Use(middleware.RequireGroupManagement(denials))
	{
		groups.GET("", handler.List)
		groups.POST("", handler.Create)
		groups.PUT("/:id", handler.Update)
		groups.DELETE("/:id", handler.Delete)
	}
}
