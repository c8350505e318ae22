// Package handlers wires the dev sync server's HTTP surface: account
// endpoints plus a minimal object store the client adapters can talk to.
package handlers

import (
	"PromptKeeper/internal/config"
	"PromptKeeper/internal/middleware"
	"PromptKeeper/internal/repo"
	"PromptKeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

func init() {
	// chi only routes methods it knows about.
	chi.RegisterMethod("MKCOL")
}

// NewHandler builds the router.
func NewHandler(
	userService *service.UserService,
	objects repo.ObjectRepository,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	userHandler := NewUserHandler(userService, logger, config)
	objectHandler := NewObjectHandler(objects, userService, logger)

	// User routes
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)

	// Object storage; speaks enough of the WebDAV verbs for the client.
	r.MethodFunc("GET", "/store/*", objectHandler.Get)
	r.MethodFunc("HEAD", "/store/*", objectHandler.Head)
	r.MethodFunc("PUT", "/store/*", objectHandler.Put)
	r.MethodFunc("MKCOL", "/store/*", objectHandler.Mkcol)

	return &Handler{Router: r}
}
