package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CharanLingolu/StudentMarkTracker-Backend/auth"
	"github.com/CharanLingolu/StudentMarkTracker-Backend/handlers"
	"github.com/CharanLingolu/StudentMarkTracker-Backend/models"
)

// SetupRoutes configures the API routes
func SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// Public routes
	api.POST("/auth/login", auth.LoginHandler)
	api.POST("/registerAdmin", handlers.RegisterAdminHandler)
	api.POST("/registerTestStudent", handlers.RegisterTestStudentHandler)

	// User management (admin only)
	api.POST("/users", auth.RequireRoles(models.RoleAdmin), handlers.CreateUserHandler)
	api.GET("/users", auth.RequireRoles(models.RoleAdmin), handlers.ListUsersHandler)
	api.PUT("/users/password/:id", auth.RequireRoles(models.RoleAdmin), handlers.UpdatePasswordHandler)
	api.PUT("/users/:id", auth.RequireRoles(models.RoleAdmin), handlers.UpdateUserHandler)
	api.DELETE("/users/:id", auth.RequireRoles(models.RoleAdmin), handlers.DeleteUserHandler)

	// Student marks
	api.GET("/studentmarks", auth.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleStudent), handlers.ListMarksHandler)
	api.POST("/studentmarks", auth.RequireRoles(models.RoleTeacher), handlers.CreateMarkHandler)
	api.PUT("/studentmarks/:id", auth.RequireRoles(models.RoleTeacher), handlers.UpdateMarkHandler)
	api.DELETE("/studentmarks/:id", auth.RequireRoles(models.RoleTeacher), handlers.DeleteMarkHandler)

	// Complaints
	api.POST("/complaints", auth.RequireRoles(models.RoleStudent), handlers.CreateComplaintHandler)
	api.GET("/complaints", auth.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleStudent), handlers.ListComplaintsHandler)
	api.PUT("/complaints/:id", auth.RequireRoles(models.RoleTeacher, models.RoleAdmin), handlers.ResolveComplaintHandler)

	// Unmatched routes get a plain-text 404
	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "404 Not Found: The requested resource was not found on this server.")
	})
}
