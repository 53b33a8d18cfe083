package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pettrust/pettrust-backend/internal/database"
	"github.com/pettrust/pettrust-backend/internal/handlers"
	"github.com/pettrust/pettrust-backend/internal/matching"
	"github.com/pettrust/pettrust-backend/internal/middleware"
	"github.com/pettrust/pettrust-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := services.InitRedis(); err != nil {
		log.Printf("Redis initialization warning: %v", err)
	}

	// Firebase is optional - push notifications are skipped when absent
	if err := services.InitFirebase(); err != nil {
		log.Printf("Firebase initialization warning: %v", err)
	}

	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Matching core
	registry := matching.NewRegistry(db)
	ledger := matching.NewLedger(db)
	factory := matching.NewFactory()
	inbox := matching.NewInbox(db, registry, ledger, factory)

	// WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Background sweep keeps request listings tidy; lazy expiry on reads
	// is what actually guarantees correctness.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := registry.SweepExpired(); err != nil {
				log.Printf("Expiry sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Expired %d overdue requests", n)
			}
		}
	}()

	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored uploads
	r.Static("/uploads", "/app/uploads")

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// Public trip-share view
		api.GET("/shared/:token", handlers.GetSharedTrip(db))

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/me", handlers.GetCurrentUser(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
				users.POST("/fcm-token", handlers.RegisterFCMToken(db))
				users.DELETE("/fcm-token", handlers.RemoveFCMToken(db))
			}

			pets := protected.Group("/pets")
			pets.Use(middleware.RequireRole("owner"))
			{
				pets.GET("", handlers.GetPets(db))
				pets.POST("", handlers.CreatePet(db))
				pets.PUT("/:id", handlers.UpdatePet(db))
				pets.DELETE("/:id", handlers.DeletePet(db))
				pets.POST("/:id/photo", handlers.UploadPetPhoto(db))
			}

			providers := protected.Group("/providers")
			{
				providers.GET("/me", handlers.GetMyProviderProfile(db))
				providers.PUT("/me/walker", middleware.RequireRole("walker"), handlers.UpsertWalkerProfile(db))
				providers.PUT("/me/daycare", middleware.RequireRole("daycare"), handlers.UpsertDaycareProfile(db))
				providers.PUT("/me/vet", middleware.RequireRole("vet"), handlers.UpsertVetProfile(db))
				providers.POST("/me/availability", handlers.SetAvailability(db))
				providers.POST("/me/photo", handlers.UploadProviderPhoto(db))
				providers.GET("/:type", handlers.ListProviders(db))
				providers.GET("/:type/:id", handlers.GetProvider(db))
				providers.GET("/:type/:id/capacity", handlers.CheckProviderCapacity(db, ledger))
			}

			requests := protected.Group("/requests")
			{
				requests.POST("", middleware.RequireRole("owner"), handlers.CreateServiceRequest(db, hub, registry, inbox))
				requests.GET("", middleware.RequireRole("owner"), handlers.GetMyRequests(db, registry))
				requests.GET("/:id", middleware.RequireRole("owner"), handlers.GetRequestStatus(db, registry))
			}

			inboxRoutes := protected.Group("/inbox")
			inboxRoutes.Use(middleware.RequireRole("walker", "daycare", "vet"))
			{
				inboxRoutes.GET("", handlers.GetInbox(db, inbox))
				inboxRoutes.POST("/:id/read", handlers.MarkInboxEntryRead(db, inbox))
				inboxRoutes.POST("/:id/respond", handlers.RespondToInboxEntry(db, hub, inbox))
			}

			bookings := protected.Group("/bookings")
			{
				bookings.GET("", middleware.RequireRole("owner"), handlers.GetOwnerBookings(db))
				bookings.GET("/provider", middleware.RequireRole("walker", "daycare", "vet"), handlers.GetProviderBookings(db))
				bookings.GET("/:id", handlers.GetBooking(db))
				bookings.POST("/:id/start", handlers.StartBooking(db, hub))
				bookings.POST("/:id/complete", handlers.CompleteBooking(db, hub, ledger))
				bookings.POST("/:id/cancel", middleware.RequireRole("owner"), handlers.CancelBooking(db, hub, ledger))
				bookings.POST("/:id/pay", middleware.RequireRole("owner"), handlers.PayBooking(db))
				bookings.POST("/:id/verify-pin", handlers.VerifyMeetingPIN(db, factory))
				bookings.POST("/:id/share", middleware.RequireRole("owner"), handlers.CreateTripShare(db))

				bookings.POST("/:id/sos", handlers.RaiseSOS(db, hub))
				bookings.POST("/:id/checkins", handlers.CreateCheckIn(db))
				bookings.GET("/:id/checkins", handlers.GetCheckIns(db))
				bookings.POST("/:id/wellness", handlers.CreateWellnessReport(db))
				bookings.GET("/:id/wellness", handlers.GetWellnessReport(db))
				bookings.POST("/:id/tracking", handlers.AddTrackingPoint(db, hub))
				bookings.GET("/:id/tracking", handlers.GetTrackingPoints(db))
			}

			protected.POST("/sos/:alertId/resolve", handlers.ResolveSOS(db))
			protected.POST("/reviews", middleware.RequireRole("owner"), handlers.CreateReview(db))
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
