package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campuskit/campus-admin-api/api/swagger"
	"github.com/campuskit/campus-admin-api/internal/handler"
	"github.com/campuskit/campus-admin-api/internal/middleware"
	"github.com/campuskit/campus-admin-api/internal/models"
	"github.com/campuskit/campus-admin-api/internal/repository"
	"github.com/campuskit/campus-admin-api/internal/service"
	"github.com/campuskit/campus-admin-api/pkg/cache"
	"github.com/campuskit/campus-admin-api/pkg/config"
	"github.com/campuskit/campus-admin-api/pkg/database"
	"github.com/campuskit/campus-admin-api/pkg/logger"
	"github.com/campuskit/campus-admin-api/pkg/mailer"
	corsmiddleware "github.com/campuskit/campus-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuskit/campus-admin-api/pkg/middleware/requestid"
)

// @title Campus Admin API
// @version 1.0.0
// @description Subject allocation, section staffing and classroom membership API
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	mail := mailer.New(cfg.Mail, logr)

	userRepo := repository.NewUserRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	allocationSvc := service.NewAllocationService(allocationRepo, sectionRepo, subjectRepo, cacheRepo, validate, logr)
	sectionSvc := service.NewSectionService(facultyRepo, allocationRepo, sectionRepo, memberRepo, cacheRepo, cfg.Classroom.JoinCodeLength, validate, logr)
	membershipSvc := service.NewMembershipService(sectionRepo, memberRepo, validate, logr)
	invitationSvc := service.NewInvitationService(
		sectionRepo, memberRepo, invitationRepo, facultyRepo, studentRepo, mail,
		cfg.Classroom.InvitationTTL, cfg.Classroom.FrontendBaseURL, validate, logr,
	)
	dashboardSvc := service.NewDashboardService(
		allocationRepo, sectionRepo, facultyRepo, cacheRepo, metricsSvc,
		cfg.Classroom.DefaultSectionNames, cfg.Dashboard.CacheEnabled, cfg.Dashboard.CacheTTL,
		validate, logr,
	)

	authHandler := handler.NewAuthHandler(authSvc)
	allocationHandler := handler.NewAllocationHandler(allocationSvc, sectionSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	classroomHandler := handler.NewClassroomHandler(membershipSvc, invitationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	allocations := api.Group("/allocations", middleware.JWT(authSvc))
	allocations.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD), allocationHandler.Allocate)
	allocations.GET("/subjects", allocationHandler.GetAllocated)
	allocations.GET("/hod-dashboard", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD), dashboardHandler.HodDashboard)
	allocations.POST("/staff", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD), allocationHandler.AssignStaff)

	sections := api.Group("/sections", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleHOD))
	sections.PATCH("/:id/staff", sectionHandler.UpdateStaff)
	sections.DELETE("/:id/staff", sectionHandler.RemoveStaff)
	sections.DELETE("/:id", sectionHandler.Delete)
	sections.POST("/:id/staff/refresh", sectionHandler.RefreshStaff)

	classrooms := api.Group("/classrooms", middleware.JWT(authSvc))
	classrooms.GET("/:id/members", classroomHandler.Members)
	classrooms.DELETE("/:id/members/:userId", classroomHandler.RemoveMember)
	classrooms.POST("/join", classroomHandler.Join)
	classrooms.POST("/:id/invitations", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleFaculty), classroomHandler.Invite)
	classrooms.POST("/invitations/respond", classroomHandler.RespondInvitation)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
