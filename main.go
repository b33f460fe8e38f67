package main

import (
	"log"
	"os"
	"time"

	"github.com/lewiii254/farm-connect-market-wise-sub001/handlers/auth"
	"github.com/lewiii254/farm-connect-market-wise-sub001/handlers/courses"
	"github.com/lewiii254/farm-connect-market-wise-sub001/handlers/crops"
	"github.com/lewiii254/farm-connect-market-wise-sub001/handlers/notifications"
	"github.com/lewiii254/farm-connect-market-wise-sub001/handlers/payments"
	"github.com/lewiii254/farm-connect-market-wise-sub001/handlers/stats"
	"github.com/lewiii254/farm-connect-market-wise-sub001/migrations"
	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/seed"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file:", err)
	}
}

func main() {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://farmconnect.co.ke"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	utils.ConnectDatabase()

	migrations.MigrateCrops()
	migrations.MigrateCourses()
	migrations.MigrateNotifications()
	migrations.MigratePayments()

	// Seed Initial Data
	if err := seed.SeedCrops(); err != nil {
		log.Fatalf("Failed to seed crops: %v", err)
	}
	if err := seed.SeedCourses(); err != nil {
		log.Fatalf("Failed to seed courses: %v", err)
	}

	payments.Setup(utils.MarketplaceDB)

	// Public routes
	r.POST("/register", auth.Register)
	r.POST("/verify-otp", auth.VerifyOTP)
	r.POST("/login", auth.Login)
	r.POST("/refresh-token", auth.RefreshToken)
	r.POST("/request-otp", auth.RequestOTP)
	r.POST("/verify-otp-reset", auth.VerifyOTPReset)
	r.POST("/reset-password", auth.ResetPassword)
	r.POST("/payments/mpesa/callback", payments.MpesaCallback)

	r.GET("/crops", crops.GetCrops)
	r.GET("/crops/in-season", crops.GetCropsInSeason)
	r.GET("/courses", courses.GetCourses)
	r.GET("/featured-courses", courses.GetFeaturedCourses)
	r.GET("/stats", stats.GetStats)

	protected := r.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/logout", auth.Logout)
		protected.POST("/save-push-token", auth.SavePushToken)
		protected.POST("/payments/initiate", payments.InitiateMpesaPayment)
		protected.GET("/payments", payments.ListTransactions)
		protected.GET("/payments/:checkout_request_id", payments.GetTransaction)
		notifications.RegisterNotificationsRoutes(protected)
	}

	// Migrate models
	utils.MarketplaceDB.AutoMigrate(&models.User{})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
