package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkurbatov/learning_platform/internal/models"
)

func TestCreateCourse(t *testing.T) {
	db := initTestDB(t)
	h := &CourseHandler{DB: db}
	instructor := createUser(t, db, "Jane", "jane@x.com", "pw", models.RoleInstructor)

	c, rec := newJSONContext(t, http.MethodPost, "/api/courses", map[string]interface{}{
		"title":       "Go Basics",
		"description": "Intro course",
		"price":       10.0,
	})
	asIdentity(c, instructor.ID, instructor.Role)

	require.NoError(t, h.CreateCourse(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var course models.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &course))
	require.Equal(t, instructor.ID, course.InstructorID)
	require.False(t, course.Published)
}

func TestCreateCourse_MissingTitle(t *testing.T) {
	db := initTestDB(t)
	h := &CourseHandler{DB: db}
	instructor := createUser(t, db, "Jane", "jane@x.com", "pw", models.RoleInstructor)

	c, _ := newJSONContext(t, http.MethodPost, "/api/courses", map[string]interface{}{
		"description": "no title",
	})
	asIdentity(c, instructor.ID, instructor.Role)

	he := httpError(t, h.CreateCourse(c))
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetCourses_PublishedOnly(t *testing.T) {
	db := initTestDB(t)
	h := &CourseHandler{DB: db}
	instructor := createUser(t, db, "Jane", "jane@x.com", "pw", models.RoleInstructor)

	require.NoError(t, db.Create(&models.Course{
		Title: "Live", Description: "d", InstructorID: instructor.ID, Published: true,
	}).Error)
	require.NoError(t, db.Create(&models.Course{
		Title: "Draft", Description: "d", InstructorID: instructor.ID,
	}).Error)

	c, rec := newJSONContext(t, http.MethodGet, "/api/courses", nil)
	require.NoError(t, h.GetCourses(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var courses []models.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
	require.Len(t, courses, 1)
	require.Equal(t, "Live", courses[0].Title)
}

func TestUpdateCourse_OwnershipEnforced(t *testing.T) {
	db := initTestDB(t)
	h := &CourseHandler{DB: db}
	owner := createUser(t, db, "Jane", "jane@x.com", "pw", models.RoleInstructor)
	other := createUser(t, db, "Bob", "bob@x.com", "pw", models.RoleInstructor)

	course := models.Course{Title: "Go", Description: "d", InstructorID: owner.ID}
	require.NoError(t, db.Create(&course).Error)

	// Another instructor is 403 even though the role gate lets them in.
	c, _ := newJSONContext(t, http.MethodPut, "/api/courses/1", map[string]interface{}{"title": "Hijacked"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	asIdentity(c, other.ID, other.Role)
	he := httpError(t, h.UpdateCourse(c))
	require.Equal(t, http.StatusForbidden, he.Code)

	// The owner may publish it.
	c2, rec := newJSONContext(t, http.MethodPut, "/api/courses/1", map[string]interface{}{"published": true})
	c2.SetParamNames("id")
	c2.SetParamValues("1")
	asIdentity(c2, owner.ID, owner.Role)
	require.NoError(t, h.UpdateCourse(c2))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Course
	require.NoError(t, db.First(&updated, course.ID).Error)
	require.True(t, updated.Published)
	require.Equal(t, "Go", updated.Title)
}

func TestUpdateCourse_AdminOverridesOwnership(t *testing.T) {
	db := initTestDB(t)
	h := &CourseHandler{DB: db}
	owner := createUser(t, db, "Jane", "jane@x.com", "pw", models.RoleInstructor)
	admin := createUser(t, db, "Root", "root@x.com", "pw", models.RoleAdmin)

	course := models.Course{Title: "Go", Description: "d", InstructorID: owner.ID}
	require.NoError(t, db.Create(&course).Error)

	c, rec := newJSONContext(t, http.MethodPut, "/api/courses/1", map[string]interface{}{"title": "Moderated"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	asIdentity(c, admin.ID, admin.Role)
	require.NoError(t, h.UpdateCourse(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAddLessonAndGetCourse(t *testing.T) {
	db := initTestDB(t)
	h := &CourseHandler{DB: db}
	owner := createUser(t, db, "Jane", "jane@x.com", "pw", models.RoleInstructor)

	course := models.Course{Title: "Go", Description: "d", InstructorID: owner.ID, Published: true}
	require.NoError(t, db.Create(&course).Error)

	for i, title := range []string{"Second", "First"} {
		c, rec := newJSONContext(t, http.MethodPost, "/api/courses/1/lessons", map[string]interface{}{
			"title":     title,
			"video_url": "https://v/" + title,
			"order":     2 - i,
		})
		c.SetParamNames("id")
		c.SetParamValues("1")
		asIdentity(c, owner.ID, owner.Role)
		require.NoError(t, h.AddLesson(c))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	c, rec := newJSONContext(t, http.MethodGet, "/api/courses/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetCourse(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Lessons []models.Lesson `json:"lessons"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Lessons, 2)
	require.Equal(t, "First", resp.Lessons[0].Title)
	require.Equal(t, "Second", resp.Lessons[1].Title)
}

func TestDeleteCourse_RemovesLessons(t *testing.T) {
	db := initTestDB(t)
	h := &CourseHandler{DB: db}
	owner := createUser(t, db, "Jane", "jane@x.com", "pw", models.RoleInstructor)

	course := models.Course{Title: "Go", Description: "d", InstructorID: owner.ID}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&models.Lesson{
		CourseID: course.ID, Title: "L1", VideoURL: "https://v/1", Position: 1,
	}).Error)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/courses/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asIdentity(c, owner.ID, owner.Role)
	require.NoError(t, h.DeleteCourse(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var lessonCount int64
	require.NoError(t, db.Model(&models.Lesson{}).Count(&lessonCount).Error)
	require.Zero(t, lessonCount)
}

func TestGetCourse_NotFound(t *testing.T) {
	db := initTestDB(t)
	h := &CourseHandler{DB: db}

	c, _ := newJSONContext(t, http.MethodGet, "/api/courses/99", nil)
	c.SetParamNames("id")
	c.SetParamValues("99")
	he := httpError(t, h.GetCourse(c))
	require.Equal(t, http.StatusNotFound, he.Code)
}
