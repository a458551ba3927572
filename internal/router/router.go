// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/footfed/licences-backend/internal/config"
	"github.com/footfed/licences-backend/internal/handlers"
	"github.com/footfed/licences-backend/internal/middleware"
	"github.com/footfed/licences-backend/internal/models"
	"github.com/footfed/licences-backend/internal/services"
	"github.com/footfed/licences-backend/internal/utils"
	"github.com/footfed/licences-backend/internal/workflow"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg, nil, nil)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg)
	clubService := services.NewClubService(db)
	demandeService := services.NewDemandeService(db)
	workflowService := services.NewWorkflowService(db, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	clubHandler := handlers.NewClubHandler(clubService)
	demandeHandler := handlers.NewDemandeHandler(demandeService, workflowService, storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.RequestAuditMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Club routes (read-only referential)
		clubs := v1.Group("/clubs")
		clubs.Use(middleware.AuthRequired())
		{
			clubs.GET("", clubHandler.ListClubs)
			clubs.GET("/:id", clubHandler.GetClub)
		}

		// Status referential (public)
		v1.GET("/statuses", getStatusesHandler)

		// Demande routes
		demandes := v1.Group("/demandes")
		demandes.Use(middleware.AuthRequired())
		{
			demandes.POST("", demandeHandler.CreateDemande)
			demandes.GET("", demandeHandler.GetDemandes)
			demandes.GET("/:id", demandeHandler.GetDemande)
			demandes.PUT("/:id", demandeHandler.UpdateDemande)
			demandes.DELETE("/:id", demandeHandler.DeleteDemande)

			demandes.GET("/:id/transitions", demandeHandler.GetAvailableTransitions)
			demandes.GET("/:id/history", demandeHandler.GetStatusHistory)
			demandes.POST("/:id/attachments", middleware.UploadRateLimit(), demandeHandler.UploadAttachment)

			// Status transitions are restricted to league and federation staff
			staff := demandes.Group("")
			staff.Use(middleware.RoleRequired(models.UserRoleLigue, models.UserRoleAdmin))
			{
				staff.PUT("/:id/status", demandeHandler.ChangeStatus)
				staff.PUT("/:id/validate", demandeHandler.ValidateDemande)
				staff.PUT("/:id/reject", demandeHandler.RejectDemande)
				staff.PUT("/:id/print", demandeHandler.MarkPrinted)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}

func getStatusesHandler(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"statuses": workflow.AllStatuses(),
	})
}
