package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/interfaces"
	"github.com/hephylab/tableService/internal/middleware/logging"
)

// Handler holds the HTTP request handlers.
type Handler struct {
	usecase interfaces.Usecases
	logger  *logging.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(usecase interfaces.Usecases, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter configures and returns the HTTP router.
func ProvideRouter(h *Handler, cfg *config.AppConfig) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.Default()

	router.Use(LoggingMiddleware(h.logger))

	v1 := router.Group("/api/v1")
	{
		table := v1.Group("/table")
		{
			table.GET("/status", h.Status)
			table.POST("/connect", h.Connect)
			table.DELETE("/connect", h.Disconnect)
			table.GET("/connect", h.ConnectionInfo)
			table.POST("/move/relative", h.MoveRelative)
			table.POST("/move/absolute", h.MoveAbsolute)
			table.POST("/move/abort", h.AbortMove)
			table.POST("/calibrate", h.Calibrate)
			table.POST("/range-measure", h.RangeMeasure)
			table.POST("/joystick", h.EnableJoystick)
			table.PUT("/zlimit", h.SetZLimit)
		}

		positions := v1.Group("/positions")
		{
			positions.POST("", h.CreatePosition)
			positions.GET("", h.GetPositions)
			positions.GET("/:id", h.GetPosition)
			positions.PUT("/:id", h.UpdatePosition)
			positions.DELETE("/:id", h.DeletePosition)
			positions.POST("/:id/move", h.MoveToPosition)
		}
	}

	return router
}
