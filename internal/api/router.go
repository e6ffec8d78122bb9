package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/api/handlers"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/api/middleware"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/config"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/services"
)

// Services bundles the service instances the router needs. The caller wires
// them in main so the same instances can be shared with the task processor.
type Services struct {
	Accounts services.IAccountService
	Listings services.IListingService
	Bookings services.IBookingService
	Reports  services.IReportService
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, svcs Services) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := handlers.NewAuthHandler(svcs.Accounts, cfg)
	accountHandler := handlers.NewAccountHandler(svcs.Accounts)
	listingHandler := handlers.NewListingHandler(svcs.Listings)
	bookingHandler := handlers.NewBookingHandler(svcs.Bookings)
	reportHandler := handlers.NewReportHandler(svcs.Reports)

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Credential endpoints carry a per-IP rate limit.
		authRoutes := v1.Group("/auth")
		authRoutes.Use(rateLimiter.Limit())
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		// Public catalog.
		v1.GET("/listings", listingHandler.ListListings)
		v1.GET("/listings/:id", listingHandler.GetListing)

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/me", accountHandler.GetProfile)
			authRequired.PATCH("/me", accountHandler.UpdateProfile)

			authRequired.POST("/bookings", bookingHandler.CreateBooking)
			authRequired.GET("/bookings", bookingHandler.ListBookings)
			authRequired.GET("/bookings/:id", bookingHandler.GetBooking)
			authRequired.PATCH("/bookings/:id", bookingHandler.UpdateBooking)
			authRequired.DELETE("/bookings/:id", bookingHandler.CancelBooking)
			authRequired.POST("/bookings/:id/payment-proof", bookingHandler.AddPaymentProof)
		}

		hostRequired := v1.Group("/")
		hostRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.RequireRoles(models.RoleHost, models.RoleAdmin))
		{
			hostRequired.GET("/host/listings", listingHandler.ListOwnListings)
			hostRequired.POST("/listings", listingHandler.CreateListing)
			hostRequired.PATCH("/listings/:id", listingHandler.UpdateListing)
			hostRequired.DELETE("/listings/:id", listingHandler.DeleteListing)
			hostRequired.POST("/listings/:id/images", listingHandler.AddImages)
			hostRequired.DELETE("/listings/:id/images", listingHandler.RemoveImage)

			hostRequired.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)
			hostRequired.PATCH("/bookings/:id/payment-status", bookingHandler.UpdatePaymentStatus)

			hostRequired.GET("/reports/bookings.csv", reportHandler.BookingsCSV)
		}

		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.RequireRoles(models.RoleAdmin))
		{
			adminRequired.GET("/accounts", accountHandler.ListAccounts)
			adminRequired.PATCH("/accounts/:id/role", accountHandler.SetRole)
			adminRequired.PATCH("/accounts/:id/status", accountHandler.SetStatus)
		}
	}

	return r
}
