// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/database"
	"serial-service/internal/handler"
	"serial-service/internal/middleware"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config         *config.Config
	logger         *zap.Logger
	db             *database.DB
	manager        *service.ConnectionManager
	portService    *service.PortService
	journalService *service.JournalService
	wsHandler      *handler.WebSocketHandler
}

// NewRouter creates a new router instance. db and journalService may be nil.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db *database.DB,
	manager *service.ConnectionManager,
	portService *service.PortService,
	journalService *service.JournalService,
	wsHandler *handler.WebSocketHandler,
) *Router {
	return &Router{
		config:         config,
		logger:         logger,
		db:             db,
		manager:        manager,
		portService:    portService,
		journalService: journalService,
		wsHandler:      wsHandler,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	switch {
	case r.config.App.Environment == "test":
		gin.SetMode(gin.TestMode)
	case r.config.IsDebugEnabled():
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(utils.NewServiceLogger(r.logger, "http-server")))
	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Debug("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.manager, r.db, r.config, r.logger)
	serialHandler := handler.NewSerialHandler(r.manager, r.portService, r.journalService, r.logger)

	healthHandler.RegisterRoutes(router)

	apiV1 := router.Group("/api/v1")
	serialHandler.RegisterRoutes(apiV1)

	if r.wsHandler != nil {
		r.wsHandler.RegisterRoutes(router.Group("/ws"))
		apiV1.GET("/ws/stats", func(c *gin.Context) {
			utils.SuccessResponse(c, http.StatusOK, "WebSocket statistics", r.wsHandler.GetConnectionStats())
		})
	}

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
