package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"game-progression-system/handlers"
	"game-progression-system/middleware"
	"game-progression-system/models"
	"game-progression-system/services"
	"game-progression-system/utils"
	"game-progression-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB — largest payload is a skill icon
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Session-Token, X-Service-Token, X-Device-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.GameSession{},
		&models.GameProgressSnapshot{},
		&models.NormalScore{},
		&models.LeaderboardScore{},
		&models.SkillScore{},
		&models.Skill{},
		&models.SkillEffect{},
		&models.SkillPrerequisite{},
		&models.UserSkill{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	scoreService := services.NewScoreService(db)
	sessionService := services.NewSessionService(db, scoreService)
	leaderboardService := services.NewLeaderboardService(db)
	profileService := services.NewProfileService(db)

	skillCatalog := services.NewSkillCatalog()
	if err := skillCatalog.Load(db); err != nil {
		log.Fatal("failed to load skill catalog:", err)
	}
	skillService := services.NewSkillService(db, skillCatalog)

	// --- CONFIGURE identity sync for profiles ---
	identityServiceURL := os.Getenv("IDENTITY_SERVICE_URL")
	if identityServiceURL == "" {
		log.Fatal("IDENTITY_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("PROGRESSION_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("PROGRESSION_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	syncWorker := workers.NewProfileSyncWorker(db, identityServiceURL, "/api/v1/public/accounts", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Profile Sync Worker...")
		syncWorker.Start(ctx)
	}()

	// Sessions without a progress report for 30 minutes are force-ended.
	sessionService.StartSessionReaper(30 * time.Minute)

	// ✅ Setup routes — enforced Gateway auth; admin surface under /s/admin
	handlers.SetupGameRoutes(app, sessionService, scoreService)
	handlers.SetupLeaderboardRoutes(app, leaderboardService)
	handlers.SetupSkillRoutes(app, skillService)
	handlers.SetupProfileRoutes(app, profileService, scoreService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Session reaper running (30m idle cutoff)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
