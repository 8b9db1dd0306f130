package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/scribekeys/internal/handlers"
	"github.com/charlesng35/scribekeys/internal/middleware"
)

func registerAdminRoutes(api *gin.RouterGroup, users *handlers.UserHandler, audit *handlers.AuditHandler, sec *handlers.SecurityHandler, denials middleware.DenialRecorder) {
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin(denials))

	u := admin.Group("/users")
	{
		u.GET("", users.List)
		u.POST("", users.Create)
		u.GET("/:id", users.Get)
		u.PUT("/:id", users.Update)
		u.DELETE("/:id", users.Delete)
	}

	admin.GET("/audit", audit.List)
	admin.GET("/security/audit", sec.Audit)
}
