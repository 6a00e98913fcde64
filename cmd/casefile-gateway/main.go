package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/dicri-platform/casefile-gateway/api/swagger"
	"github.com/dicri-platform/casefile-gateway/internal/handler"
	"github.com/dicri-platform/casefile-gateway/internal/middleware"
	"github.com/dicri-platform/casefile-gateway/internal/models"
	"github.com/dicri-platform/casefile-gateway/internal/repository"
	"github.com/dicri-platform/casefile-gateway/internal/service"
	"github.com/dicri-platform/casefile-gateway/internal/upstream"
	"github.com/dicri-platform/casefile-gateway/pkg/cache"
	"github.com/dicri-platform/casefile-gateway/pkg/config"
	"github.com/dicri-platform/casefile-gateway/pkg/database"
	"github.com/dicri-platform/casefile-gateway/pkg/logger"
	corsmiddleware "github.com/dicri-platform/casefile-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/dicri-platform/casefile-gateway/pkg/middleware/requestid"
	"github.com/dicri-platform/casefile-gateway/pkg/storage"
)

// @title Casefile Gateway API
// @version 0.1.0
// @description Review-workflow gateway in front of the legacy expedientes API
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()

	// Redis mirrors the working-set snapshot and the busy flags. The
	// gateway still works without it, only degraded-mode fallback is lost.
	var cacheSvc *service.CacheService
	if cfg.Snapshot.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, snapshot cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Snapshot.CacheTTL, logr, true)
		}
	}

	// The audit trail is the gateway's own store; the case data itself
	// lives behind the upstream API.
	var auditRepo *repository.AuditRepository
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Warnw("postgres unavailable, audit trail disabled", "error", err)
	} else {
		auditRepo = repository.NewAuditRepository(db)
	}

	client := upstream.NewClient(cfg.Upstream, logr, metricsSvc)
	caseRepo := upstream.NewCaseRepository(client, cfg.Upstream)

	aggregator := service.NewEvidenceAggregator(caseRepo, cfg.Upstream.EvidenceConcurrency, metricsSvc, logr)
	reconciler := service.NewReconciler(caseRepo, aggregator, cacheSvc, logr)
	guard := service.NewCodeGuard(cacheSvc, cfg.Snapshot.BusyTTL, logr)

	var audit service.AuditRecorder
	if auditRepo != nil {
		audit = auditRepo
	}

	authSvc := service.NewAuthService(cfg.JWT)
	reviewSvc := service.NewReviewService(caseRepo, reconciler, guard, audit, logr)
	activationSvc := service.NewActivationService(caseRepo, reconciler, guard, audit, logr)
	caseSvc := service.NewCaseService(caseRepo, reconciler, guard, audit, nil, logr)

	caseHandler := handler.NewCaseHandler(caseSvc, reviewSvc, activationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(reconciler, files, signer, audit, logr)
		exportHandler = handler.NewExportHandler(exportSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authed := r.Group(cfg.APIPrefix)
	authed.Use(middleware.JWT(authSvc))

	expedientes := authed.Group("/expedientes")
	expedientes.GET("", caseHandler.List)
	expedientes.PUT("/:codigo", caseHandler.Edit)
	expedientes.PATCH("/:codigo/activo", caseHandler.SetActive)

	revision := expedientes.Group("")
	revision.Use(middleware.RequireRoles(models.RoleCoordinator))
	revision.GET("/revision", caseHandler.ListReview)
	revision.POST("/:codigo/aprobar", caseHandler.Approve)
	revision.POST("/:codigo/rechazar", caseHandler.Reject)

	if exportHandler != nil {
		exports := authed.Group("/exports")
		exports.Use(middleware.RequireRoles(models.RoleCoordinator))
		exports.POST("", exportHandler.Generate)
		// Download links are pre-authorized by the HMAC token, no JWT.
		r.GET("/exports/:file", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("gateway starting", "addr", addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("gateway failed", "error", err)
	}
}
