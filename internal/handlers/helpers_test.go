package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dkurbatov/learning_platform/internal/hash"
	authmw "github.com/dkurbatov/learning_platform/internal/middleware/auth"
	"github.com/dkurbatov/learning_platform/internal/models"
	"github.com/dkurbatov/learning_platform/internal/service"
	"github.com/dkurbatov/learning_platform/internal/session"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{}, &models.Course{}, &models.Lesson{},
		&models.Enrollment{}, &models.Progress{}, &models.Note{},
		&models.RefreshToken{},
	)
	require.NoError(t, err)
	return db
}

func newAuthHandler(t *testing.T, db *gorm.DB) *AuthHandler {
	t.Helper()
	return &AuthHandler{
		Auth: &service.AuthService{
			DB:            db,
			Sessions:      session.NewGormStore(db),
			JWTSecret:     []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
		},
	}
}

func newJSONContext(t *testing.T, method, target string, payload interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asIdentity(c echo.Context, userID uint, role string) {
	c.Set("identity", authmw.Identity{UserID: userID, Role: role})
}

func createUser(t *testing.T, db *gorm.DB, name, email, password, role string) *models.User {
	t.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)
	user := models.User{Name: name, Email: email, PasswordHash: pwHash, Role: role}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func httpError(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	return he
}
