package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/mesafacil/reservas-backend/database"
	"github.com/mesafacil/reservas-backend/internal/handlers"
	"github.com/mesafacil/reservas-backend/internal/jobs"
	"github.com/mesafacil/reservas-backend/internal/routes"
	"github.com/mesafacil/reservas-backend/internal/services"
	"github.com/mesafacil/reservas-backend/internal/session"
	"github.com/mesafacil/reservas-backend/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	// Persistence: Postgres in production, in-memory for local runs.
	var store storage.Store
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️ Using in-memory store (data is lost on restart)")
		store = storage.NewMemoryStore()
	} else {
		if err := database.Connect(); err != nil {
			log.Fatalf("❌ Database connection failed: %v", err)
		}
		store = storage.NewDatabaseStore(database.DB)
	}
	storage.SetStore(store)

	// Sessions: Redis when configured, otherwise in-process.
	var sessions session.Store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		rs, err := session.NewRedisStore(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), redisDB)
		if err != nil {
			log.Fatalf("❌ Redis connection failed: %v", err)
		}
		defer rs.Close()
		sessions = rs
		log.Println("✅ Redis session store connected")
	} else {
		log.Println("⚠️ Using in-memory session store")
		sessions = session.NewMemoryStore()
	}

	tenants := services.NewTenantResolver(store, envOr("DATA_DIR", "data"))
	messenger := services.NewTwilioMessenger()

	dialog := services.NewDialog(store, sessions)
	if ai := services.NewAIResponder(os.Getenv("DEEPSEEK_API_KEY")); ai != nil {
		dialog.WithAI(ai)
		log.Println("✅ AI fallback enabled")
	}
	if mailer := services.NewSMTPMailerFromEnv(); mailer != nil {
		dialog.WithMailer(mailer)
		log.Println("✅ Confirmation emails enabled")
	}

	reminderJob := jobs.NewReminderJob(store, sessions, tenants, messenger,
		envInt("REMINDER_HOUR", 10), envInt("REMINDER_MINUTE", 0))
	reminderJob.Start()
	defer reminderJob.Stop()

	app := fiber.New(fiber.Config{
		AppName: "MesaFácil Reservas API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	routes.Setup(app,
		handlers.NewWhatsAppHandler(tenants, dialog),
		handlers.NewReminderHandler(reminderJob),
	)

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Shutdown error: %v", err)
		}
	}()

	port := envOr("PORT", "3000")
	log.Printf("🚀 Server listening on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
