package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/rdotsilva/fitnessblog/internal/middleware/auth"
	"github.com/rdotsilva/fitnessblog/internal/models"
)

type AccountHandler struct {
	DB          *gorm.DB
	PicturesDir string
}

func (h *AccountHandler) GetAccount(c echo.Context) error {
	user, err := authmw.CurrentUser(c, h.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

type accountRequest struct {
	Username    string `json:"username"     form:"username"     validate:"required,min=2,max=20"`
	Email       string `json:"email"        form:"email"        validate:"required,email"`
	ProfileType string `json:"profile_type" form:"profile_type" validate:"required"`
}

func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	user, err := authmw.CurrentUser(c, h.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	var req accountRequest
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
	if _, ok := errs["username"]; !ok && req.Username != user.Username && usernameTaken(h.DB, req.Username, user.ID) {
		errs["username"] = "Username is taken. Choose another username."
	}
	if _, ok := errs["email"]; !ok && req.Email != user.Email && emailTaken(h.DB, req.Email, user.ID) {
		errs["email"] = "That email is taken. Please choose a different one."
	}

	file, ferr := c.FormFile("picture")
	if len(errs) == 0 && ferr == nil {
		filename, perr := h.savePicture(file)
		if perr != nil {
			errs["picture"] = perr.Error()
		} else {
			user.ImageFile = filename
		}
	}
	if len(errs) > 0 {
		return fieldErrors(c, errs)
	}

	user.Username = req.Username
	user.Email = req.Email
	user.ProfileType = models.ProfileType(req.ProfileType)

	if err := h.DB.Save(user).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, user)
}

// savePicture stores an uploaded avatar under a random name, keeping only
// the original extension.
func (h *AccountHandler) savePicture(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", fmt.Errorf("only jpg and png images are allowed")
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("cannot read uploaded file: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.PicturesDir, 0o755); err != nil {
		return "", fmt.Errorf("cannot store uploaded file: %w", err)
	}

	filename := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(h.PicturesDir, filename))
	if err != nil {
		return "", fmt.Errorf("cannot store uploaded file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("cannot store uploaded file: %w", err)
	}
	return filename, nil
}
