package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkurbatov/learning_platform/internal/events"
	"github.com/dkurbatov/learning_platform/internal/logging"
	authmw "github.com/dkurbatov/learning_platform/internal/middleware/auth"
	"github.com/dkurbatov/learning_platform/internal/models"
)

type StudentHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (h *StudentHandler) Enroll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "student_enroll")

	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	courseID, err := pathID(c, "courseId")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	var course models.Course
	if err := h.DB.WithContext(ctx).Where("id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "course not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var existing models.Enrollment
	err = h.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", id.UserID, courseID).
		First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "already enrolled")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	enrollment := models.Enrollment{UserID: id.UserID, CourseID: courseID}
	if err := h.DB.WithContext(ctx).Create(&enrollment).Error; err != nil {
		l.Error("enroll_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(pubCtx, events.TopicCourseEvents, fmt.Sprint(courseID), map[string]interface{}{
		"type":      "student_enrolled",
		"user_id":   id.UserID,
		"course_id": courseID,
	}); err != nil {
		l.Error("kafka publish error", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "enrolled successfully"})
}

func (h *StudentHandler) MyCourses(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var courses []models.Course
	if err := h.DB.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", id.UserID).
		Find(&courses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, courses)
}

func (h *StudentHandler) UpdateProgress(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	lessonID, err := pathID(c, "lessonId")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lesson id")
	}

	var req struct {
		CourseID       uint  `json:"course_id"`
		Completed      *bool `json:"completed"`
		WatchedSeconds *uint `json:"watched_seconds"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var progress models.Progress
	err = h.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", id.UserID, lessonID).
		First(&progress).Error
	switch {
	case err == nil:
		if req.Completed != nil {
			progress.Completed = *req.Completed
		}
		if req.WatchedSeconds != nil {
			progress.WatchedSeconds = *req.WatchedSeconds
		}
		progress.LastWatched = time.Now()
		if err := h.DB.WithContext(ctx).Save(&progress).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, progress)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First progress entry for this lesson needs the course.
		if req.CourseID == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "course_id is required for first time progress")
		}
		progress = models.Progress{
			UserID:      id.UserID,
			CourseID:    req.CourseID,
			LessonID:    lessonID,
			LastWatched: time.Now(),
		}
		if req.Completed != nil {
			progress.Completed = *req.Completed
		}
		if req.WatchedSeconds != nil {
			progress.WatchedSeconds = *req.WatchedSeconds
		}
		if err := h.DB.WithContext(ctx).Create(&progress).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return c.JSON(http.StatusOK, progress)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *StudentHandler) GetCourseProgress(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	courseID, err := pathID(c, "courseId")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	var course models.Course
	if err := h.DB.WithContext(ctx).Where("id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "course not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var totalLessons int64
	if err := h.DB.WithContext(ctx).Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&totalLessons).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var completed []models.Progress
	if err := h.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND completed = ?", id.UserID, courseID, true).
		Find(&completed).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	percentage := 0.0
	if totalLessons > 0 {
		percentage = float64(len(completed)) / float64(totalLessons) * 100
		percentage = math.Round(percentage*100) / 100
	}

	return c.JSON(http.StatusOK, echo.Map{
		"course_id":           courseID,
		"total_lessons":       totalLessons,
		"completed_lessons":   len(completed),
		"progress_percentage": percentage,
		"details":             completed,
	})
}

func (h *StudentHandler) SaveNote(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var req struct {
		LessonID  uint   `json:"lesson_id"`
		Content   string `json:"content"`
		Timestamp uint   `json:"timestamp"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.LessonID == 0 || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "lesson_id and content are required")
	}

	note := models.Note{
		UserID:    id.UserID,
		LessonID:  req.LessonID,
		Content:   req.Content,
		Timestamp: req.Timestamp,
	}
	if err := h.DB.WithContext(ctx).Create(&note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, note)
}

func (h *StudentHandler) GetLessonNotes(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	lessonID, err := pathID(c, "lessonId")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lesson id")
	}

	var notes []models.Note
	if err := h.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", id.UserID, lessonID).
		Order("timestamp asc").
		Find(&notes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, notes)
}

func (h *StudentHandler) DeleteNote(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	noteID, err := pathID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid note id")
	}

	var note models.Note
	if err := h.DB.WithContext(ctx).Where("id = ?", noteID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "note not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if note.UserID != id.UserID {
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	}

	if err := h.DB.WithContext(ctx).Delete(&note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "note removed"})
}
