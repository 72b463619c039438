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
	"github.com/rdotsilva/fitnessblog/internal/mail"
	"github.com/rdotsilva/fitnessblog/internal/models"
	"github.com/rdotsilva/fitnessblog/internal/mykafka"
	"github.com/rdotsilva/fitnessblog/internal/service/token"
)

type ResetHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Mailer   mail.Sender
	Producer *mykafka.Producer
	BaseURL  string
}

func (h *ResetHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type requestResetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// RequestReset emails a reset link. A failed send is surfaced as an error;
// the token it carried stays valid until expiry either way.
func (h *ResetHandler) RequestReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reset_request")

	var req requestResetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if errs := validateStruct(&req); errs != nil {
		return fieldErrors(c, errs)
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fieldErrors(c, map[string]string{
				"email": "There is no account using that email address.",
			})
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	signed, err := h.Tokens.IssueReset(&user, token.ResetTTL)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if h.Mailer == nil {
		return echo.NewHTTPError(http.StatusBadGateway, "mail delivery is not configured")
	}
	resetURL := h.BaseURL + "/reset_password/" + signed
	if err := h.Mailer.SendPasswordReset(user.Email, resetURL); err != nil {
		l.Error("reset_mail_failed", "status", 502, "userID", user.ID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "could not send the reset email")
	}
	l.Info("reset_mail_sent", "userID", user.ID)

	h.publish(c, map[string]interface{}{
		"type":   "password_reset_requested",
		"userID": user.ID,
	})

	return c.JSON(http.StatusOK, Response{
		Status:  "ok",
		Message: "An email has been sent with instructions to reset your password",
	})
}

type resetPasswordRequest struct {
	Password        string `json:"password"         form:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
}

// ResetPassword redeems a token. Every failure mode gets the same message so
// token validity cannot be probed.
func (h *ResetHandler) ResetPassword(c echo.Context) error {
	user := h.Tokens.VerifyReset(h.DB, c.Param("token"))
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "That is an invalid or expired token. Please request a new one.")
	}

	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if errs := validateStruct(&req); errs != nil {
		return fieldErrors(c, errs)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if err := h.DB.Model(user).Update("password_hash", pwHash).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":   "password_reset_completed",
		"userID": user.ID,
	})

	return c.JSON(http.StatusOK, Response{
		Status:  "ok",
		Message: "Your password has been updated. Please log in",
	})
}
