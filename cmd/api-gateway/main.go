package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studyhall/tutoring-api/api/swagger"
	"github.com/studyhall/tutoring-api/internal/handler"
	"github.com/studyhall/tutoring-api/internal/middleware"
	"github.com/studyhall/tutoring-api/internal/models"
	"github.com/studyhall/tutoring-api/internal/repository"
	"github.com/studyhall/tutoring-api/internal/service"
	"github.com/studyhall/tutoring-api/pkg/cache"
	"github.com/studyhall/tutoring-api/pkg/config"
	"github.com/studyhall/tutoring-api/pkg/database"
	"github.com/studyhall/tutoring-api/pkg/jobs"
	"github.com/studyhall/tutoring-api/pkg/logger"
	corsmiddleware "github.com/studyhall/tutoring-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studyhall/tutoring-api/pkg/middleware/requestid"
)

// @title StudyHall Tutoring API
// @version 1.0.0
// @description Smart scheduling and slot reservation for the tutoring marketplace
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	// Repositories.
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	termRepo := repository.NewTermRepository(db)
	userRepo := repository.NewUserRepository(db)
	reservationRepo := repository.NewReservationRepository(redisClient, logr)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	slotSvc := service.NewSlotService(availabilityRepo, bookingRepo, termRepo, reservationRepo, logr,
		service.SlotGeneratorConfig{MaxRangeDays: cfg.Scheduling.MaxRangeDays})
	schedulingSvc := service.NewSchedulingService(subjectRepo, teacherRepo, slotSvc, cacheRepo, metricsSvc, logr, cfg.Scheduling)
	swapSvc := service.NewSwapService(slotSvc, logr)
	reservationSvc := service.NewReservationService(reservationRepo, bookingRepo, availabilityRepo, metricsSvc, logr, cfg.Reservations)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, cacheRepo, logr)
	draftSvc := service.NewDraftService(cacheRepo, logr, cfg.Drafts)
	pricingClient := service.NewHTTPPricingClient(cfg.Pricing, logr)

	// Handlers.
	schedulingHandler := handler.NewSchedulingHandler(schedulingSvc, swapSvc, draftSvc, validate)
	reservationHandler := handler.NewReservationHandler(reservationSvc, pricingClient, validate, logr)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc, validate)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	// Background sweep reconciling holds stranded by partial failures.
	sweepQueue := jobs.NewQueue("reservation-sweep", func(ctx context.Context, job jobs.Job) error {
		_, err := reservationSvc.Sweep(ctx)
		return err
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweepQueue.Start(sweepCtx)
	defer sweepQueue.Stop()
	go func() {
		ticker := time.NewTicker(cfg.Reservations.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case tick := <-ticker.C:
				if err := sweepQueue.Enqueue(jobs.Job{Type: "sweep", Enqueued: tick}); err != nil {
					logr.Warn("failed to enqueue reservation sweep")
				}
			}
		}
	}()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		scheduling := api.Group("/scheduling")
		{
			scheduling.POST("/slots/smart", schedulingHandler.SmartSlots)
			scheduling.GET("/slots/alternatives", schedulingHandler.Alternatives)

			drafts := scheduling.Group("/drafts", middleware.JWT(authSvc))
			{
				drafts.GET("", schedulingHandler.LoadDraft)
				drafts.PUT("", schedulingHandler.SaveDraft)
				drafts.DELETE("", schedulingHandler.DiscardDraft)
			}
		}

		reservations := api.Group("/reservations")
		{
			reservations.POST("", reservationHandler.Reserve)
			reservations.GET("/check", reservationHandler.Check)
			reservations.DELETE("/:token", reservationHandler.Cancel)
			reservations.POST("/:token/extend", reservationHandler.Extend)
			reservations.POST("/:token/consume", middleware.JWT(authSvc), reservationHandler.Consume)
		}

		availability := api.Group("/availability")
		{
			availability.GET("", availabilityHandler.List)
			availability.GET("/:id", availabilityHandler.Get)

			manage := availability.Group("", middleware.JWT(authSvc),
				middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
			{
				manage.POST("", availabilityHandler.Create)
				manage.PUT("/:id", availabilityHandler.Update)
				manage.DELETE("/:id", availabilityHandler.Delete)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
