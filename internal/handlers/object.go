package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"PromptKeeper/internal/middleware"
	"PromptKeeper/internal/repo"
	"PromptKeeper/internal/service"

	"go.uber.org/zap"
)

// Request bodies larger than this are rejected outright.
const maxObjectSize = 50 << 20

type ObjectHandler struct {
	Objects     repo.ObjectRepository
	UserService *service.UserService
	Logger      *zap.SugaredLogger
}

func NewObjectHandler(objects repo.ObjectRepository, userService *service.UserService, logger *zap.SugaredLogger) *ObjectHandler {
	return &ObjectHandler{Objects: objects, UserService: userService, Logger: logger}
}

// authorized accepts either the auth cookie or HTTP basic credentials, so
// both browser sessions and the WebDAV client adapter can use the store.
func (h *ObjectHandler) authorized(r *http.Request) bool {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return true
	}
	login, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	_, err := h.UserService.Login(r.Context(), login, password)
	return err == nil
}

func objectKey(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/store/")
}

func (h *ObjectHandler) fail(w http.ResponseWriter, key string, err error) {
	switch {
	case errors.Is(err, repo.ErrObjectNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrBadObjectPath):
		http.Error(w, "invalid path", http.StatusBadRequest)
	default:
		h.Logger.Errorw("object storage error", "key", key, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *ObjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	key := objectKey(r)
	b, err := h.Objects.Get(r.Context(), key)
	if err != nil {
		h.fail(w, key, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(b)
}

func (h *ObjectHandler) Head(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	key := objectKey(r)
	ok, err := h.Objects.Exists(r.Context(), key)
	if err != nil {
		h.fail(w, key, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ObjectHandler) Put(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	key := objectKey(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxObjectSize)
	b, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err := h.Objects.Put(r.Context(), key, b); err != nil {
		h.fail(w, key, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *ObjectHandler) Mkcol(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	key := objectKey(r)
	if err := h.Objects.EnsureDir(r.Context(), key); err != nil {
		h.fail(w, key, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
