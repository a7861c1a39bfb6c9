package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkurbatov/learning_platform/internal/models"
	"github.com/dkurbatov/learning_platform/internal/tokens"
)

func TestRegister(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)

	payload := map[string]string{
		"name":     "A",
		"email":    "a@x.com",
		"password": "p1",
		"role":     "student",
	}
	c, rec := newJSONContext(t, http.MethodPost, "/api/auth/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "A", resp["name"])
	require.Equal(t, "student", resp["role"])
	require.NotContains(t, rec.Body.String(), "p1")

	require.NotNil(t, findCookie(t, rec, tokens.AccessCookie))
	require.NotNil(t, findCookie(t, rec, tokens.RefreshCookie))

	// Same email again.
	c2, _ := newJSONContext(t, http.MethodPost, "/api/auth/register", payload)
	he := httpError(t, h.Register(c2))
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestRegister_CookieSecureFollowsEnvironment(t *testing.T) {
	db := initTestDB(t)
	payload := map[string]string{"name": "A", "email": "a@x.com", "password": "p1"}

	// Plain-HTTP development setup keeps Secure off so browsers accept
	// the cookies; production turns it on.
	h := newAuthHandler(t, db)
	c, rec := newJSONContext(t, http.MethodPost, "/api/auth/register", payload)
	require.NoError(t, h.Register(c))
	require.False(t, findCookie(t, rec, tokens.AccessCookie).Secure)
	require.False(t, findCookie(t, rec, tokens.RefreshCookie).Secure)

	h.SecureCookies = true
	c2, rec2 := newJSONContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "B", "email": "b@x.com", "password": "p1",
	})
	require.NoError(t, h.Register(c2))
	require.True(t, findCookie(t, rec2, tokens.AccessCookie).Secure)
	require.True(t, findCookie(t, rec2, tokens.RefreshCookie).Secure)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)

	c, _ := newJSONContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "p1", "role": "admin",
	})
	he := httpError(t, h.Register(c))
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLogin(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)

	reg, _ := newJSONContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "p1",
	})
	require.NoError(t, h.Register(reg))

	c, rec := newJSONContext(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "a@x.com", "password": "p1",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		User    struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, models.RoleStudent, resp.User.Role)

	require.NotNil(t, findCookie(t, rec, tokens.AccessCookie))
	require.NotNil(t, findCookie(t, rec, tokens.RefreshCookie))
}

func TestLogin_FailureShapeIsIdentical(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)

	reg, _ := newJSONContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "p1",
	})
	require.NoError(t, h.Register(reg))

	wrongPw, _ := newJSONContext(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "a@x.com", "password": "nope",
	})
	unknown, _ := newJSONContext(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@x.com", "password": "p1",
	})

	heWrongPw := httpError(t, h.Login(wrongPw))
	heUnknown := httpError(t, h.Login(unknown))

	// Never reveal which of the two fields was wrong.
	require.Equal(t, http.StatusUnauthorized, heWrongPw.Code)
	require.Equal(t, http.StatusUnauthorized, heUnknown.Code)
	require.Equal(t, heWrongPw.Message, heUnknown.Message)
}

func TestRefresh_RotatesCookies(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)

	reg, regRec := newJSONContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "p1",
	})
	require.NoError(t, h.Register(reg))
	oldRefresh := findCookie(t, regRec, tokens.RefreshCookie)
	require.NotNil(t, oldRefresh)

	c, rec := newJSONContext(t, http.MethodGet, "/api/auth/refresh", nil)
	c.Request().AddCookie(oldRefresh)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	newRefresh := findCookie(t, rec, tokens.RefreshCookie)
	require.NotNil(t, newRefresh)
	require.NotEqual(t, oldRefresh.Value, newRefresh.Value)
	newAccess := findCookie(t, rec, tokens.AccessCookie)
	require.NotNil(t, newAccess)

	// Replaying the superseded token must fail.
	replay, _ := newJSONContext(t, http.MethodGet, "/api/auth/refresh", nil)
	replay.Request().AddCookie(oldRefresh)
	he := httpError(t, h.Refresh(replay))
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestRefresh_NoCookie(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)

	c, _ := newJSONContext(t, http.MethodGet, "/api/auth/refresh", nil)
	he := httpError(t, h.Refresh(c))
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRefresh_GarbageCookie(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)

	c, _ := newJSONContext(t, http.MethodGet, "/api/auth/refresh", nil)
	c.Request().AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "garbage"})
	he := httpError(t, h.Refresh(c))
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestLogout(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)

	reg, regRec := newJSONContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "p1",
	})
	require.NoError(t, h.Register(reg))
	refresh := findCookie(t, regRec, tokens.RefreshCookie)

	c, rec := newJSONContext(t, http.MethodPost, "/api/auth/logout", nil)
	c.Request().AddCookie(refresh)
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Cookies cleared.
	cleared := findCookie(t, rec, tokens.RefreshCookie)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)

	// The revoked token is dead for refresh.
	replay, _ := newJSONContext(t, http.MethodGet, "/api/auth/refresh", nil)
	replay.Request().AddCookie(refresh)
	he := httpError(t, h.Refresh(replay))
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestLogout_NoSession(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(t, db)

	c, rec := newJSONContext(t, http.MethodPost, "/api/auth/logout", nil)
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
