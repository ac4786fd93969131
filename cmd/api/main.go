package main

import (
	"log"
	"os"

	"protocol-review-api/config"
	"protocol-review-api/controllers"
	"protocol-review-api/middleware"
	"protocol-review-api/models"
	"protocol-review-api/monitor"
	"protocol-review-api/routes"
	"protocol-review-api/services"
	"protocol-review-api/workflow"

	"github.com/gin-gonic/gin"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatal("❌ Failed to load settings:", err)
	}
	if logFile := config.InitLogging(settings.LogFile); logFile != nil {
		defer logFile.Close()
	}
	if settings.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET must be set")
	}

	if err := config.InitDB(settings); err != nil {
		log.Fatal("❌ ", err)
	}
	if err := services.AutoMigrate(config.DB); err != nil {
		log.Fatal("❌ Failed to migrate schema:", err)
	}

	if settings.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(settings.UploadPath, os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create upload directory: %v", err)
	}

	db := config.DB
	locks := services.NewProtocolLocks()
	ledger := services.NewStatusLedger(db)
	versions := services.NewVersionStore(db, locks)
	assignments := services.NewAssignmentRegistry(db, locks)
	engine := services.NewLifecycleEngine(db, workflow.NewValidator(nil), versions, ledger, assignments, locks)
	notifications := services.NewNotificationService(db, config.NewMailer(settings.Mail))
	engine.Subscribe(notifications)

	protocols := services.NewProtocolService(db, ledger, assignments, locks, workflow.ContentDefaults{
		FacilityName:     settings.DefaultFacilityName,
		FacilityBuilding: settings.DefaultFacilityBuilding,
		FundingSource:    settings.DefaultFundingSource,
	})

	router := gin.New()
	router.Use(gin.LoggerWithWriter(config.LogWriter))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(settings.CORSAllowedOrigins...))

	routes.SetupRoutes(router, routes.Options{
		DB:        db,
		JWTSecret: settings.JWTSecret,
		Auth:      controllers.NewAuthController(db, settings.JWTSecret, settings.JWTExpireHours),
		Protocols: controllers.NewProtocolController(controllers.Deps{
			Protocols:   protocols,
			Engine:      engine,
			Versions:    versions,
			Comments:    services.NewCommentThread(db),
			Assignments: assignments,
			Ledger:      ledger,
			Attachments: services.NewAttachmentService(db, assignments, locks, settings.UploadPath),
		}),
		Notifications: controllers.NewNotificationController(notifications),
	})

	ops := router.Group("/api/v1/admin")
	ops.Use(middleware.AuthMiddleware(settings.JWTSecret, db), middleware.RequireRole(models.RoleAdmin))
	monitor.RegisterMonitorRoutes(ops, db, settings.LogFile)

	log.Printf("🚀 Server starting on port %s", settings.ServerPort)
	if settings.IsProduction() {
		log.Printf("🏭 Running in production mode")
	} else {
		log.Printf("🔧 Running in development mode")
	}

	if err := router.Run(":" + settings.ServerPort); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}
