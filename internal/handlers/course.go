package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkurbatov/learning_platform/internal/events"
	"github.com/dkurbatov/learning_platform/internal/logging"
	authmw "github.com/dkurbatov/learning_platform/internal/middleware/auth"
	"github.com/dkurbatov/learning_platform/internal/models"
)

type CourseHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (h *CourseHandler) GetCourses(c echo.Context) error {
	var courses []models.Course
	if err := h.DB.WithContext(c.Request().Context()).
		Where("published = ?", true).
		Find(&courses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) GetCourse(c echo.Context) error {
	ctx := c.Request().Context()
	courseID, err := pathID(c, "id")
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

	var lessons []models.Lesson
	if err := h.DB.WithContext(ctx).
		Where("course_id = ?", course.ID).
		Order("position asc").
		Find(&lessons).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"course":  course,
		"lessons": lessons,
	})
}

func (h *CourseHandler) CreateCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course_create")

	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Thumbnail   string  `json:"thumbnail"`
		Price       float64 `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and description are required")
	}

	course := models.Course{
		Title:        req.Title,
		Description:  req.Description,
		Thumbnail:    req.Thumbnail,
		Price:        req.Price,
		InstructorID: id.UserID,
	}
	if err := h.DB.WithContext(ctx).Create(&course).Error; err != nil {
		l.Error("course_create_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]interface{}{
		"type":          "course_created",
		"course_id":     course.ID,
		"instructor_id": course.InstructorID,
	})
	return c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) UpdateCourse(c echo.Context) error {
	ctx := c.Request().Context()

	course, httpErr := h.ownedCourse(c)
	if httpErr != nil {
		return httpErr
	}

	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Thumbnail   *string  `json:"thumbnail"`
		Price       *float64 `json:"price"`
		Published   *bool    `json:"published"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Thumbnail != nil {
		course.Thumbnail = *req.Thumbnail
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Published != nil {
		course.Published = *req.Published
	}

	if err := h.DB.WithContext(ctx).Save(course).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) DeleteCourse(c echo.Context) error {
	ctx := c.Request().Context()

	course, httpErr := h.ownedCourse(c)
	if httpErr != nil {
		return httpErr
	}

	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		return tx.Delete(course).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]interface{}{
		"type":      "course_deleted",
		"course_id": course.ID,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "course removed"})
}

func (h *CourseHandler) AddLesson(c echo.Context) error {
	ctx := c.Request().Context()

	course, httpErr := h.ownedCourse(c)
	if httpErr != nil {
		return httpErr
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		VideoURL    string `json:"video_url"`
		Duration    uint   `json:"duration"`
		Order       uint   `json:"order"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.VideoURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and video_url are required")
	}

	lesson := models.Lesson{
		CourseID:    course.ID,
		Title:       req.Title,
		Description: req.Description,
		VideoURL:    req.VideoURL,
		Duration:    req.Duration,
		Position:    req.Order,
	}
	if err := h.DB.WithContext(ctx).Create(&lesson).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, lesson)
}

// ownedCourse loads the course from the path and enforces that the
// caller is its instructor or an admin.
func (h *CourseHandler) ownedCourse(c echo.Context) (*models.Course, error) {
	id, ok := authmw.CurrentIdentity(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	courseID, err := pathID(c, "id")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	var course models.Course
	if err := h.DB.WithContext(c.Request().Context()).
		Where("id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "course not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if course.InstructorID != id.UserID && id.Role != models.RoleAdmin {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not authorized for this course")
	}
	return &course, nil
}

func (h *CourseHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	key := fmt.Sprint(event["course_id"])
	if err := h.Producer.PublishEvent(ctx, events.TopicCourseEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func pathID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
