package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "manualhub/internal/app"
	"manualhub/internal/bootstrap"
	"manualhub/internal/cache"
	"manualhub/internal/config"
	"manualhub/internal/extract"
	rabbitmqClient "manualhub/internal/platform/rabbitmq"
	"manualhub/internal/repository"
	"manualhub/internal/synth"
	"manualhub/internal/transport/http/handler"
	"manualhub/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	recordRepo := repository.NewQueryRecordRepository(app.MySQL)
	artifactRepo := repository.NewArtifactRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)

	chain := newExtractChain(app.Config.Extract)
	ingestService := appsvc.NewIngestService(app.Config.Storage, app.Config.Index, chain, app.Indexer, docRepo)
	libraryService := appsvc.NewLibraryService(app.Config.Storage, app.Indexer, docRepo, artifactRepo)

	synthesizer := synth.NewSynthesizer(app.Config.Synthesis)
	publisher := rabbitmqClient.NewQueryRecordPublisher(app.MQConn, app.Config.RabbitMQ.QueryRecordQueue)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	askService := appsvc.NewAskService(app.Config.Index, app.Indexer, synthesizer, docRepo, recordRepo, publisher, historyCache)

	generator := synth.NewGenerator(app.LLM)
	generateService := appsvc.NewGenerateService(app.Config.Storage, generator, docRepo, artifactRepo)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(ingestService, libraryService)
	queryHandler := handler.NewQueryHandler(askService)
	generateHandler := handler.NewGenerateHandler(generateService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("", documentHandler.List)
	docGroup.DELETE("/:collection", documentHandler.Delete)

	queryGroup := v1.Group("/query")
	queryGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	queryGroup.POST("", queryHandler.Ask)
	queryGroup.GET("/history", queryHandler.History)

	docGroup.POST("/:collection/rules", generateHandler.Rules)
	docGroup.GET("/:collection/rules", generateHandler.ListRules)
	docGroup.POST("/:collection/maintenance", generateHandler.MaintenanceSchedule)
	docGroup.GET("/:collection/maintenance", generateHandler.ListMaintenanceTasks)
	docGroup.POST("/:collection/safety", generateHandler.SafetyInformation)
	docGroup.GET("/:collection/safety", generateHandler.ListSafetyItems)

	return router
}

// newExtractChain orders the strategies: MinerU first, then the page-based
// text fallback that needs nothing beyond the PDF itself.
func newExtractChain(cfg config.ExtractConfig) *extract.Chain {
	return extract.NewChain(
		extract.NewMinerUStrategy(cfg),
		extract.NewPageTextStrategy(),
	)
}
