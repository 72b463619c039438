package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rdotsilva/fitnessblog/internal/models"
)

func TestCreatePost(t *testing.T) {
	db := InitTestDB(t)
	user := createTestUser(t, db, "author", "author@example.com", "password")
	h := &PostHandler{DB: db}

	c, rec := newJSONContext(t, http.MethodPost, "/post/new", map[string]any{
		"title":    "Morning run",
		"content":  "5k around the park",
		"category": "cardio",
	})
	c.Set("userID", user.ID)

	require.NoError(t, h.CreatePost(c))
	requireStatus(t, rec, http.StatusCreated)

	var post models.Post
	decodeBody(t, rec, &post)
	require.Equal(t, "Morning run", post.Title)
	require.Equal(t, models.CategoryCardio, post.Category)
	require.Equal(t, user.ID, post.UserID)
	require.False(t, post.DatePosted.IsZero())
}

func TestCreatePostValidation(t *testing.T) {
	db := InitTestDB(t)
	user := createTestUser(t, db, "author", "author@example.com", "password")
	h := &PostHandler{DB: db}

	c, rec := newJSONContext(t, http.MethodPost, "/post/new", map[string]any{
		"title":    "Stretching",
		"content":  "toe touches",
		"category": "yoga",
	})
	c.Set("userID", user.ID)

	require.NoError(t, h.CreatePost(c))
	requireStatus(t, rec, http.StatusUnprocessableEntity)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, rec, &resp)
	require.Contains(t, resp.Errors, "category")
}

func TestGetPost(t *testing.T) {
	db := InitTestDB(t)
	user := createTestUser(t, db, "author", "author@example.com", "password")
	post := createTestPost(t, db, user.ID, "Leg day", models.CategoryWeight, time.Now().UTC())
	h := &PostHandler{DB: db}

	c, rec := newJSONContext(t, http.MethodGet, "/post/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.GetPost(c))
	requireStatus(t, rec, http.StatusOK)

	var got models.Post
	decodeBody(t, rec, &got)
	require.Equal(t, post.ID, got.ID)
	require.Equal(t, "Leg day", got.Title)
}

func TestGetPostNotFound(t *testing.T) {
	db := InitTestDB(t)
	h := &PostHandler{DB: db}

	c, _ := newJSONContext(t, http.MethodGet, "/post/999999", nil)
	c.SetParamNames("id")
	c.SetParamValues("999999")

	requireHTTPError(t, h.GetPost(c), http.StatusNotFound)
}

func TestUpdatePost(t *testing.T) {
	db := InitTestDB(t)
	user := createTestUser(t, db, "author", "author@example.com", "password")
	posted := time.Now().UTC().Add(-time.Hour)
	post := createTestPost(t, db, user.ID, "Old title", models.CategoryDiet, posted)
	h := &PostHandler{DB: db}

	c, rec := newJSONContext(t, http.MethodPut, "/post/1/update", map[string]any{
		"title":    "New title",
		"content":  "new content",
		"category": "other",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("userID", user.ID)

	require.NoError(t, h.UpdatePost(c))
	requireStatus(t, rec, http.StatusOK)

	var updated models.Post
	require.NoError(t, db.First(&updated, post.ID).Error)
	require.Equal(t, "New title", updated.Title)
	require.Equal(t, models.CategoryOther, updated.Category)
	require.Equal(t, posted.Unix(), updated.DatePosted.Unix(), "date_posted is immutable")
}

func TestUpdatePostNotOwner(t *testing.T) {
	db := InitTestDB(t)
	owner := createTestUser(t, db, "owner", "owner@example.com", "password")
	other := createTestUser(t, db, "other", "other@example.com", "password")
	post := createTestPost(t, db, owner.ID, "Owner post", models.CategoryCardio, time.Now().UTC())
	h := &PostHandler{DB: db}

	c, _ := newJSONContext(t, http.MethodPut, "/post/1/update", map[string]any{
		"title":    "Hijacked",
		"content":  "hijacked",
		"category": "other",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("userID", other.ID)

	requireHTTPError(t, h.UpdatePost(c), http.StatusForbidden)

	var unchanged models.Post
	require.NoError(t, db.First(&unchanged, post.ID).Error)
	require.Equal(t, "Owner post", unchanged.Title)
	require.Equal(t, models.CategoryCardio, unchanged.Category)
}

func TestDeletePost(t *testing.T) {
	db := InitTestDB(t)
	user := createTestUser(t, db, "author", "author@example.com", "password")
	post := createTestPost(t, db, user.ID, "Short lived", models.CategoryOther, time.Now().UTC())
	h := &PostHandler{DB: db}

	c, rec := newJSONContext(t, http.MethodPost, "/post/1/delete", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("userID", user.ID)

	require.NoError(t, h.DeletePost(c))
	requireStatus(t, rec, http.StatusOK)

	err := db.First(&models.Post{}, post.ID).Error
	require.Error(t, err)
}

func TestDeletePostNotOwner(t *testing.T) {
	db := InitTestDB(t)
	owner := createTestUser(t, db, "owner", "owner@example.com", "password")
	other := createTestUser(t, db, "other", "other@example.com", "password")
	post := createTestPost(t, db, owner.ID, "Keep me", models.CategoryDiet, time.Now().UTC())
	h := &PostHandler{DB: db}

	c, _ := newJSONContext(t, http.MethodPost, "/post/1/delete", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("userID", other.ID)

	requireHTTPError(t, h.DeletePost(c), http.StatusForbidden)
	require.NoError(t, db.First(&models.Post{}, post.ID).Error)
}

func TestCategoryPostsOrdering(t *testing.T) {
	db := InitTestDB(t)
	user := createTestUser(t, db, "author", "author@example.com", "password")
	now := time.Now().UTC()
	createTestPost(t, db, user.ID, "oldest diet", models.CategoryDiet, now.Add(-2*time.Hour))
	createTestPost(t, db, user.ID, "cardio post", models.CategoryCardio, now.Add(-time.Hour))
	createTestPost(t, db, user.ID, "newest diet", models.CategoryDiet, now)
	h := &PostHandler{DB: db}

	c, rec := newJSONContext(t, http.MethodGet, "/category/diet", nil)
	c.SetParamNames("category")
	c.SetParamValues("diet")

	require.NoError(t, h.CategoryPosts(c))
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Data []models.Post `json:"data"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Data, 2)
	require.Equal(t, "newest diet", resp.Data[0].Title)
	require.Equal(t, "oldest diet", resp.Data[1].Title)
	for _, p := range resp.Data {
		require.Equal(t, models.CategoryDiet, p.Category)
	}
}

func TestCategoryPostsUnknownCategory(t *testing.T) {
	db := InitTestDB(t)
	h := &PostHandler{DB: db}

	c, _ := newJSONContext(t, http.MethodGet, "/category/swimming", nil)
	c.SetParamNames("category")
	c.SetParamValues("swimming")

	requireHTTPError(t, h.CategoryPosts(c), http.StatusNotFound)
}

func TestUserPosts(t *testing.T) {
	db := InitTestDB(t)
	alice := createTestUser(t, db, "alice", "alice@example.com", "password")
	bob := createTestUser(t, db, "bob", "bob@example.com", "password")
	now := time.Now().UTC()
	createTestPost(t, db, alice.ID, "alice first", models.CategoryCardio, now.Add(-time.Hour))
	createTestPost(t, db, alice.ID, "alice second", models.CategoryDiet, now)
	createTestPost(t, db, bob.ID, "bob post", models.CategoryOther, now)
	h := &PostHandler{DB: db}

	c, rec := newJSONContext(t, http.MethodGet, "/user/alice", nil)
	c.SetParamNames("username")
	c.SetParamValues("alice")

	require.NoError(t, h.UserPosts(c))
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Data []models.Post `json:"data"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Data, 2)
	require.Equal(t, "alice second", resp.Data[0].Title)

	c, _ = newJSONContext(t, http.MethodGet, "/user/nobody", nil)
	c.SetParamNames("username")
	c.SetParamValues("nobody")
	requireHTTPError(t, h.UserPosts(c), http.StatusNotFound)
}

func TestHomePagination(t *testing.T) {
	db := InitTestDB(t)
	user := createTestUser(t, db, "author", "author@example.com", "password")
	now := time.Now().UTC()
	for i := 0; i < 7; i++ {
		createTestPost(t, db, user.ID, "post", models.CategoryOther, now.Add(time.Duration(i)*time.Minute))
	}
	h := &PostHandler{DB: db}

	c, rec := newJSONContext(t, http.MethodGet, "/home", nil)
	require.NoError(t, h.Home(c))
	requireStatus(t, rec, http.StatusOK)

	var resp struct {
		Data []models.Post  `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Data, 5)
	require.EqualValues(t, 7, resp.Meta["total"])
	require.EqualValues(t, 2, resp.Meta["total_pages"])
	require.Equal(t, true, resp.Meta["has_next"])

	c, rec = newJSONContext(t, http.MethodGet, "/home?page=2", nil)
	require.NoError(t, h.Home(c))

	decodeBody(t, rec, &resp)
	require.Len(t, resp.Data, 2)
	require.Equal(t, false, resp.Meta["has_next"])
}

// Register, log in, post, and find the post first in the category and author
// listings.
func TestRegisterLoginPostFlow(t *testing.T) {
	db := InitTestDB(t)
	auth := &AuthHandler{DB: db, Tokens: testSecrets}
	posts := &PostHandler{DB: db}

	c, rec := newJSONContext(t, http.MethodPost, "/register", registerPayload("alice", "alice@example.com"))
	require.NoError(t, auth.Register(c))
	requireStatus(t, rec, http.StatusCreated)

	c, rec = newJSONContext(t, http.MethodPost, "/login", map[string]any{
		"email":    "alice@example.com",
		"password": "pw123",
	})
	require.NoError(t, auth.Login(c))
	requireStatus(t, rec, http.StatusOK)

	userID, err := testSecrets.ParseSession(rec.Result().Cookies()[0].Value)
	require.NoError(t, err)

	c, rec = newJSONContext(t, http.MethodPost, "/post/new", map[string]any{
		"title":    "T",
		"content":  "C",
		"category": "diet",
	})
	c.Set("userID", userID)
	require.NoError(t, posts.CreatePost(c))
	requireStatus(t, rec, http.StatusCreated)

	c, rec = newJSONContext(t, http.MethodGet, "/category/diet", nil)
	c.SetParamNames("category")
	c.SetParamValues("diet")
	require.NoError(t, posts.CategoryPosts(c))

	var resp struct {
		Data []models.Post `json:"data"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Data)
	require.Equal(t, "T", resp.Data[0].Title)

	c, rec = newJSONContext(t, http.MethodGet, "/user/alice", nil)
	c.SetParamNames("username")
	c.SetParamValues("alice")
	require.NoError(t, posts.UserPosts(c))

	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Data)
	require.Equal(t, "T", resp.Data[0].Title)
}
