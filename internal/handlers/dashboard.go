package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/dkurbatov/learning_platform/internal/middleware/auth"
	"github.com/dkurbatov/learning_platform/internal/models"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func (h *DashboardHandler) InstructorStats(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var courseIDs []uint
	if err := h.DB.WithContext(ctx).Model(&models.Course{}).
		Where("instructor_id = ?", id.UserID).
		Pluck("id", &courseIDs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var totalStudents int64
	var progressCount int64
	if len(courseIDs) > 0 {
		if err := h.DB.WithContext(ctx).Model(&models.Enrollment{}).
			Where("course_id IN ?", courseIDs).
			Distinct("user_id").
			Count(&totalStudents).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if err := h.DB.WithContext(ctx).Model(&models.Progress{}).
			Where("course_id IN ?", courseIDs).
			Count(&progressCount).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_courses":          len(courseIDs),
		"total_students":         totalStudents,
		"total_progress_entries": progressCount,
	})
}

func (h *DashboardHandler) AdminStats(c echo.Context) error {
	ctx := c.Request().Context()

	var totalUsers, totalStudents, totalInstructors, totalCourses int64
	db := h.DB.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&totalStudents).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleInstructor).Count(&totalInstructors).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := db.Model(&models.Course{}).Count(&totalCourses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_users":       totalUsers,
		"total_students":    totalStudents,
		"total_instructors": totalInstructors,
		"total_courses":     totalCourses,
	})
}
