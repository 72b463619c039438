package handlers

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func errorResponse(c echo.Context, code int, err error) error {
	return c.JSON(code, Response{
		Status:  "error",
		Message: err.Error(),
	})
}

// fieldErrors renders per-field validation messages so a client can re-render
// the form with the offending fields marked.
func fieldErrors(c echo.Context, errs map[string]string) error {
	return c.JSON(http.StatusUnprocessableEntity, map[string]any{
		"status": "error",
		"errors": errs,
	})
}

// validateStruct maps validator failures to field messages, nil when valid.
func validateStruct(req any) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"form": err.Error()}
	}
	errs := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		errs[fe.Field()] = fieldMessage(fe)
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "min":
		return "Must be at least " + fe.Param() + " characters long."
	case "max":
		return "Must be at most " + fe.Param() + " characters long."
	case "eqfield":
		return "Field must be equal to password."
	default:
		return "Invalid value."
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// CreateCookie builds the session cookie. A zero exp_time produces a
// browser-session cookie without an Expires attribute.
func CreateCookie(name string, value string, path string, exp_time time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	if !exp_time.IsZero() {
		cookie.Expires = exp_time
	}

	return cookie
}

func DeleteCookie(name string, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
