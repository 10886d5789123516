package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-quizclient/internal/config"
	"github.com/stemsi/exstem-quizclient/internal/handler"
	"github.com/stemsi/exstem-quizclient/internal/middleware"
	"github.com/stemsi/exstem-quizclient/internal/model"
	"github.com/stemsi/exstem-quizclient/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Bridge *handler.BridgeHandler
	Events *handler.EventsHandler
}

// SetupRouter configures the bridge routes.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so local dashboards work without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for login (30 requests per minute per IP).
	loginLimiter := middleware.NewRateLimiter(30, time.Minute)

	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())
	{
		api.GET("/state", handlers.Bridge.GetState)
		api.GET("/lobby", handlers.Bridge.GetLobby)
		api.GET("/history", handlers.Bridge.GetHistory)
		api.GET("/archive", handlers.Bridge.GetArchive)
		api.GET("/events", handlers.Events.Stream)

		api.POST("/login", loginLimiter.Middleware(), handlers.Bridge.Login)

		// ─── Rooms ─────────────────────────────────────────────────────
		rooms := api.Group("/rooms")
		{
			rooms.GET("", handlers.Bridge.ListRooms)
			rooms.POST("", handlers.Bridge.CreateRoom)
			rooms.POST("/:room_id/select", handlers.Bridge.SelectRoom)
			rooms.POST("/:room_id/join", handlers.Bridge.JoinRoom)
			rooms.POST("/:room_id/start", handlers.Bridge.StartExam)
			rooms.GET("/:room_id/results", handlers.Bridge.GetRoomResults)
		}

		// ─── Exam ──────────────────────────────────────────────────────
		exam := api.Group("/exam")
		{
			exam.POST("/paper", handlers.Bridge.GetExamPaper)
			exam.PUT("/answers", handlers.Bridge.SetAnswer(model.ActivityExam))
			exam.POST("/submit", handlers.Bridge.Submit(model.ActivityExam))
		}

		// ─── Practice ──────────────────────────────────────────────────
		api.POST("/practice", handlers.Bridge.StartPractice)
		practice := api.Group("/practice")
		{
			practice.PUT("/answers", handlers.Bridge.SetAnswer(model.ActivityPractice))
			practice.POST("/submit", handlers.Bridge.Submit(model.ActivityPractice))
		}
	}

	return router
}
