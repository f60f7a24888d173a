// README: HTTP router registration (Gin) for the results API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartdispatch/internal/http/handlers"
	"smartdispatch/internal/http/middleware"
	"smartdispatch/internal/logger"
	"smartdispatch/internal/modules/report"
)

func NewRouter(reportService *report.Service, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(log), middleware.Recovery(log))

	runHandler := handlers.NewRunHandler(reportService)
	r.GET("/api/runs", runHandler.List)
	r.GET("/api/runs/:id", runHandler.Get)
	r.GET("/api/runs/:id/orders", runHandler.Orders)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
