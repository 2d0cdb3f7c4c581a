package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Agrilearn Enrollment Sync API
// @version 1.0
// @description Offline-first enrollment storage and synchronization for the agricultural training portal
// @host localhost:8080
// @BasePath /api/v1

// SetupRouter configures the API routes
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/enrollments", h.CreateEnrollment)

		users := v1.Group("/users/:userID/enrollments")
		{
			users.GET("", h.ListUserEnrollments)
			users.GET("/stats", h.GetUserStats)
			users.GET("/remote", h.ListRemoteEnrollments)
			users.GET("/:courseID/status", h.GetEnrollmentStatus)
			users.GET("/:courseID/remote-status", h.GetRemoteEnrollmentStatus)
			users.PUT("/:courseID/progress", h.UpdateProgress)
			users.POST("/:courseID/certificate", h.IssueCertificate)
		}

		sync := v1.Group("/sync")
		{
			sync.GET("", h.GetSyncStatus)
			sync.POST("", h.TriggerSync)
		}
	}

	return r
}
