package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/rdotsilva/fitnessblog/internal/hash"
	"github.com/rdotsilva/fitnessblog/internal/logging"
	authmw "github.com/rdotsilva/fitnessblog/internal/middleware/auth"
	"github.com/rdotsilva/fitnessblog/internal/models"
	"github.com/rdotsilva/fitnessblog/internal/mykafka"
	"github.com/rdotsilva/fitnessblog/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type registerRequest struct {
	Username        string `json:"username"         form:"username"         validate:"required,min=2,max=20"`
	Email           string `json:"email"            form:"email"            validate:"required,email"`
	Password        string `json:"password"         form:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
	ProfileType     string `json:"profile_type"     form:"profile_type"     validate:"required"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	errs := validateStruct(&req)
	if errs == nil {
		errs = map[string]string{}
	}
	if _, ok := errs["profile_type"]; !ok && !models.ProfileType(req.ProfileType).Valid() {
		errs["profile_type"] = "Choose either instructor or student."
	}
	if _, ok := errs["username"]; !ok && usernameTaken(h.DB, req.Username, 0) {
		errs["username"] = "Username is taken. Choose another username."
	}
	if _, ok := errs["email"]; !ok && emailTaken(h.DB, req.Email, 0) {
		errs["email"] = "Email address already registered. Choose another email."
	}
	if len(errs) > 0 {
		return fieldErrors(c, errs)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		ProfileType:  models.ProfileType(req.ProfileType),
		ImageFile:    models.DefaultImageFile,
		PasswordHash: pwHash,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		// The unique indexes are the real guard against a concurrent
		// registration slipping past the checks above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fieldErrors(c, map[string]string{
				"username": "Username or email is already registered.",
			})
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, map[string]any{
		"message":  "Your account has been created. Please log in",
		"redirect": "/login",
	})
}

type loginRequest struct {
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
	Remember bool   `json:"remember" form:"remember"`
}

// Login authenticates by email and password. Failures are reported with one
// generic message, never revealing whether the email or the password was
// wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	err := h.DB.Where("email = ?", req.Email).First(&user).Error
	if err != nil || !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401)
		return echo.NewHTTPError(http.StatusUnauthorized, "Login unsuccessful. Check email or password")
	}

	signed, exp, err := h.Tokens.IssueSession(user.ID, req.Remember)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if !req.Remember {
		// Browser-session cookie: credential dies with the browser even
		// though the token itself is good for SessionTTL.
		exp = time.Time{}
	}
	c.SetCookie(CreateCookie(authmw.SessionCookie, signed, "/", exp))

	redirect := "/home"
	if next := c.QueryParam("next"); next != "" && next[0] == '/' {
		redirect = next
	}
	l.Info("login_successful", "userID", user.ID)
	return c.JSON(http.StatusOK, map[string]any{"redirect": redirect})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(DeleteCookie(authmw.SessionCookie, "/"))
	return c.Redirect(http.StatusFound, "/home")
}

func usernameTaken(db *gorm.DB, username string, excludeID uint) bool {
	var count int64
	db.Model(&models.User{}).Where("username = ? AND id <> ?", username, excludeID).Count(&count)
	return count > 0
}

func emailTaken(db *gorm.DB, email string, excludeID uint) bool {
	var count int64
	db.Model(&models.User{}).Where("email = ? AND id <> ?", email, excludeID).Count(&count)
	return count > 0
}
