package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/rdotsilva/fitnessblog/internal/es"
	authmw "github.com/rdotsilva/fitnessblog/internal/middleware/auth"
	"github.com/rdotsilva/fitnessblog/internal/models"
	"github.com/rdotsilva/fitnessblog/internal/mykafka"
	"github.com/rdotsilva/fitnessblog/internal/util"
)

type PostHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
}

func (h *PostHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "post_events", fmt.Sprint(event["postID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *PostHandler) index(c echo.Context, post *models.Post) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := es.IndexPost(ctx, h.ES, es.PostIndex, post); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *PostHandler) unindex(c echo.Context, postID uint) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := es.DeletePost(ctx, h.ES, es.PostIndex, postID); err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
	}
}

type postRequest struct {
	Title    string `json:"title"    form:"title"    validate:"required,max=100"`
	Content  string `json:"content"  form:"content"  validate:"required"`
	Category string `json:"category" form:"category" validate:"required"`
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	errs := validateStruct(&req)
	if errs == nil {
		errs = map[string]string{}
	}
	if _, ok := errs["category"]; !ok && !models.Category(req.Category).Valid() {
		errs["category"] = "Choose one of cardio, weight, diet or other."
	}
	if len(errs) > 0 {
		return fieldErrors(c, errs)
	}

	post := models.Post{
		Title:      req.Title,
		Content:    req.Content,
		Category:   models.Category(req.Category),
		DatePosted: time.Now().UTC(),
		UserID:     authmw.UserID(c),
	}
	if err := h.DB.Create(&post).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":   "post_created",
		"postID": post.ID,
		"userID": post.UserID,
		"title":  post.Title,
	})
	h.index(c, &post)

	return c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}

	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, post)
}

// UpdatePost mutates title, content and category. Only the owner may update;
// the check runs before anything is written and date_posted is never touched.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}

	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if post.UserID != authmw.UserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "you do not own this post")
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	errs := validateStruct(&req)
	if errs == nil {
		errs = map[string]string{}
	}
	if _, ok := errs["category"]; !ok && !models.Category(req.Category).Valid() {
		errs["category"] = "Choose one of cardio, weight, diet or other."
	}
	if len(errs) > 0 {
		return fieldErrors(c, errs)
	}

	post.Title = req.Title
	post.Content = req.Content
	post.Category = models.Category(req.Category)

	if err := h.DB.Save(&post).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":   "post_updated",
		"postID": post.ID,
		"userID": post.UserID,
		"title":  post.Title,
	})
	h.index(c, &post)

	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}

	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if post.UserID != authmw.UserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "you do not own this post")
	}

	if err := h.DB.Delete(&post).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":   "post_deleted",
		"postID": post.ID,
		"userID": post.UserID,
	})
	h.unindex(c, post.ID)

	return c.JSON(http.StatusOK, Response{Status: "ok", Message: "Your post has been deleted!"})
}

// Home lists the latest posts, newest first, five per page.
func (h *PostHandler) Home(c echo.Context) error {
	return h.listPosts(c, func(q *gorm.DB) *gorm.DB { return q })
}

func (h *PostHandler) UserPosts(c echo.Context) error {
	username := c.Param("username")

	var user models.User
	if err := h.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return h.listPosts(c, func(q *gorm.DB) *gorm.DB { return q.Where("user_id = ?", user.ID) })
}

func (h *PostHandler) CategoryPosts(c echo.Context) error {
	category := models.Category(c.Param("category"))
	if !category.Valid() {
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	}

	return h.listPosts(c, func(q *gorm.DB) *gorm.DB { return q.Where("category = ?", category) })
}

func (h *PostHandler) listPosts(c echo.Context, scope func(*gorm.DB) *gorm.DB) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := scope(h.DB.Model(&models.Post{})).Count(&total).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var items []models.Post
	if err := scope(h.DB.Model(&models.Post{})).Order("date_posted DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *PostHandler) About(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"title":       "About",
		"description": "A blog for sharing cardio, weight training and diet posts.",
	})
}
