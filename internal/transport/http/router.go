package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/rdotsilva/fitnessblog/internal/handlers"
	"github.com/rdotsilva/fitnessblog/internal/middleware/auth"
)

type Deps struct {
	Auth           *auth.Middleware
	AuthHandler    *handlers.AuthHandler
	AccountHandler *handlers.AccountHandler
	PostHandler    *handlers.PostHandler
	ResetHandler   *handlers.ResetHandler
	SearchHandler  *handlers.SearchHandler
	PicturesDir    string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.GET("/logout", d.AuthHandler.Logout)

	e.GET("/", d.PostHandler.Home)
	e.GET("/home", d.PostHandler.Home)
	e.GET("/about", d.PostHandler.About)
	e.GET("/post/:id", d.PostHandler.GetPost)
	e.GET("/user/:username", d.PostHandler.UserPosts)
	e.GET("/category/:category", d.PostHandler.CategoryPosts)
	e.GET("/search", d.SearchHandler.Search)

	e.POST("/reset_password", d.ResetHandler.RequestReset)
	e.POST("/reset_password/:token", d.ResetHandler.ResetPassword)

	e.Static("/static/profile_pics", d.PicturesDir)

	private := e.Group("", d.Auth.RequireLogin)

	private.GET("/account", d.AccountHandler.GetAccount)
	private.POST("/account", d.AccountHandler.UpdateAccount)

	private.POST("/post/new", d.PostHandler.CreatePost)
	private.PUT("/post/:id/update", d.PostHandler.UpdatePost)
	private.POST("/post/:id/update", d.PostHandler.UpdatePost)
	private.POST("/post/:id/delete", d.PostHandler.DeletePost)
}
