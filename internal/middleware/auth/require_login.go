package auth

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/rdotsilva/fitnessblog/internal/models"
	"github.com/rdotsilva/fitnessblog/internal/service/token"
)

const SessionCookie = "session"

type Middleware struct {
	Tokens *token.Service
}

// RequireLogin resolves the session cookie into a request identity. Requests
// without a valid credential are sent to the login page with the original
// path preserved in the next parameter.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil {
			return redirectToLogin(c)
		}
		userID, err := m.Tokens.ParseSession(cookie.Value)
		if err != nil {
			return redirectToLogin(c)
		}
		c.Set("userID", userID)
		return next(c)
	}
}

func redirectToLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request().URL.RequestURI()))
}

// UserID returns the authenticated user id set by RequireLogin, 0 when
// anonymous.
func UserID(c echo.Context) uint {
	if id, ok := c.Get("userID").(uint); ok {
		return id
	}
	return 0
}

func CurrentUser(c echo.Context, db *gorm.DB) (*models.User, error) {
	var user models.User
	if err := db.First(&user, UserID(c)).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
