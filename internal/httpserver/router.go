package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/dkurbatov/learning_platform/internal/handlers"
	authmw "github.com/dkurbatov/learning_platform/internal/middleware/auth"
	"github.com/dkurbatov/learning_platform/internal/models"
	"github.com/dkurbatov/learning_platform/internal/obs"
)

type Deps struct {
	AuthHandler      *handlers.AuthHandler
	CourseHandler    *handlers.CourseHandler
	StudentHandler   *handlers.StudentHandler
	DashboardHandler *handlers.DashboardHandler
	Gate             *authmw.Gate
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/metrics", echo.WrapHandler(obs.Handler()))

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	staff := d.Gate.RequireRoles(models.RoleInstructor, models.RoleAdmin)

	courses := api.Group("/courses")
	courses.GET("", d.CourseHandler.GetCourses)
	courses.GET("/:id", d.CourseHandler.GetCourse)
	courses.POST("", d.CourseHandler.CreateCourse, d.Gate.RequireAuth, staff)
	courses.PUT("/:id", d.CourseHandler.UpdateCourse, d.Gate.RequireAuth, staff)
	courses.DELETE("/:id", d.CourseHandler.DeleteCourse, d.Gate.RequireAuth, staff)
	courses.POST("/:id/lessons", d.CourseHandler.AddLesson, d.Gate.RequireAuth, staff)

	students := api.Group("/students", d.Gate.RequireAuth, d.Gate.RequireRoles(models.RoleStudent))
	students.POST("/enroll/:courseId", d.StudentHandler.Enroll)
	students.GET("/my-courses", d.StudentHandler.MyCourses)
	students.PUT("/progress/lessons/:lessonId", d.StudentHandler.UpdateProgress)
	students.GET("/progress/:courseId", d.StudentHandler.GetCourseProgress)
	students.POST("/notes", d.StudentHandler.SaveNote)
	students.GET("/notes/:lessonId", d.StudentHandler.GetLessonNotes)
	students.DELETE("/notes/:id", d.StudentHandler.DeleteNote)

	dashboard := api.Group("/dashboard", d.Gate.RequireAuth)
	dashboard.GET("/instructor", d.DashboardHandler.InstructorStats, staff)
	dashboard.GET("/admin", d.DashboardHandler.AdminStats, d.Gate.RequireRoles(models.RoleAdmin))
}
