package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/rdotsilva/fitnessblog/internal/service/token"
)

func testMiddleware() *Middleware {
	return &Middleware{Tokens: &token.Service{
		SessionSecret: []byte("session-secret"),
		ResetSecret:   []byte("reset-secret"),
	}}
}

func TestRequireLoginWithValidSession(t *testing.T) {
	m := testMiddleware()
	signed, _, err := m.Tokens.IssueSession(7, false)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: signed})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	next := func(c echo.Context) error {
		called = true
		require.Equal(t, uint(7), UserID(c))
		return c.NoContent(http.StatusOK)
	}

	require.NoError(t, m.RequireLogin(next)(c))
	require.True(t, called)
}

func TestRequireLoginRedirectsAnonymous(t *testing.T) {
	m := testMiddleware()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/post/new", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		t.Fatal("handler must not run without a session")
		return nil
	}

	require.NoError(t, m.RequireLogin(next)(c))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login?next=%2Fpost%2Fnew", rec.Header().Get("Location"))
}

func TestRequireLoginRedirectsInvalidCookie(t *testing.T) {
	m := testMiddleware()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	require.NoError(t, m.RequireLogin(next)(c))
	require.Equal(t, http.StatusFound, rec.Code)
}

func TestUserIDAnonymous(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.Equal(t, uint(0), UserID(c))
}
