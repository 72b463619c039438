package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rdotsilva/fitnessblog/internal/hash"
	"github.com/rdotsilva/fitnessblog/internal/models"
	"github.com/rdotsilva/fitnessblog/internal/service/token"
)

var testSecrets = &token.Service{
	SessionSecret: []byte("test-session-secret"),
	ResetSecret:   []byte("test-reset-secret"),
}

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Post{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newJSONContext(t *testing.T, method, path string, payload any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	e := echo.New()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func createTestUser(t *testing.T, db *gorm.DB, username, email, password string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        email,
		ProfileType:  models.ProfileStudent,
		ImageFile:    models.DefaultImageFile,
		PasswordHash: pwHash,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, userID uint, title string, category models.Category, postedAt time.Time) *models.Post {
	t.Helper()

	post := &models.Post{
		Title:      title,
		Content:    "content of " + title,
		Category:   category,
		DatePosted: postedAt,
		UserID:     userID,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	require.Equal(t, code, rec.Code, "body: %s", rec.Body.String())
}
