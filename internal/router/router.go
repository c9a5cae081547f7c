// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/dhruvc/stylefeed/internal/config"
	"github.com/dhruvc/stylefeed/internal/handler"
	"github.com/dhruvc/stylefeed/internal/middleware"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Post    *handler.PostHandler
	Story   *handler.StoryHandler
	Media   *handler.MediaHandler
	Contest *handler.ContestHandler
}

// Register mounts all routes.  The bearer gate runs on everything so every
// handler can ask who is calling; it never rejects by itself.  Routes that
// need an identity add LoginRequired.
func Register(e *echo.Echo, cfg config.Config, h Handlers, verifier middleware.TokenVerifier, rdb *redis.Client) {
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.BearerGate(verifier))

	e.GET("/healthz", handler.Health)

	// Credential endpoints sit behind the token-bucket limiter.
	limiter := middleware.NewCredentialLimiter(config.LoadRateLimitConfig(), rdb)
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register, limiter)
	auth.POST("/login", h.Auth.Login, limiter)
	auth.POST("/refresh", h.Auth.Refresh, limiter)
	auth.POST("/logout", h.Auth.Logout, middleware.LoginRequired())
	auth.GET("/:provider", h.Auth.SocialRedirect)
	auth.GET("/:provider/callback", h.Auth.SocialCallback)

	// Public reads; anonymous responses are served from the cache.
	cached := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	pub := e.Group("/v1")
	pub.GET("/users/:id/profile", h.Profile.GetProfile, cached)
	pub.GET("/users/:id/posts", h.Post.ListByAuthor, cached)
	pub.GET("/posts/:id", h.Post.Get, cached)
	pub.GET("/contests", h.Contest.List, cached)
	pub.GET("/contests/:id", h.Contest.Get, cached)
	pub.GET("/contests/:id/finalists", h.Contest.Finalists, cached)
	pub.GET("/contests/:id/winner", h.Contest.Winner, cached)

	// Everything below needs an authenticated user.
	priv := e.Group("/v1", middleware.LoginRequired())
	priv.GET("/me", h.Profile.Me)
	priv.PUT("/me/profile", h.Profile.UpdateProfile)
	priv.POST("/me/coins/transfer", h.Profile.TransferCoins)

	priv.POST("/posts", h.Post.Create)
	priv.POST("/posts/:id/like", h.Post.Like)
	priv.POST("/posts/:id/share", h.Post.Share)
	priv.POST("/posts/:id/comments", h.Post.Comment)
	priv.POST("/comments/:commentID/like", h.Post.LikeComment)
	priv.DELETE("/comments/:commentID", h.Post.DeleteComment)

	priv.POST("/stories", h.Story.Create)
	priv.GET("/stories/:id", h.Story.Get)
	priv.GET("/users/:id/stories", h.Story.ListByAuthor)
	priv.PUT("/stories/:id/reaction", h.Story.React)
	priv.DELETE("/stories/:id/reaction", h.Story.RemoveReaction)

	priv.POST("/media", h.Media.Upload)
	priv.GET("/media/:id", h.Media.Info)

	priv.POST("/contests", h.Contest.Create)
	priv.POST("/contests/:id/submissions", h.Contest.Submit)
	priv.POST("/contests/:id/votes", h.Contest.Vote)
}
