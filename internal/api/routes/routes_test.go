package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"shoplist-service/internal/api/handlers"
	"shoplist-service/internal/api/middleware"
	"shoplist-service/internal/auth"
	"shoplist-service/internal/config"

	"github.com/gin-gonic/gin"
)

type denyAll struct{}

func (denyAll) Authenticate(context.Context, string) (uint, error) {
	return 0, auth.ErrInvalidCredential
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := Handlers{
		Auth:     handlers.NewAuthHandler(nil),
		User:     handlers.NewUserHandler(nil),
		List:     handlers.NewListHandler(nil),
		Item:     handlers.NewItemHandler(nil),
		Category: handlers.NewCategoryHandler(nil),
		Recipe:   handlers.NewRecipeHandler(nil),
		Stream:   handlers.NewStreamHandler(nil, nil, nil),
		Health:   handlers.NewHealthHandler(nil, nil, nil, nil),
	}
	cfg := &config.Config{}
	r := NewRouter(h, middleware.NewAuthMiddleware(denyAll{}), nil, cfg)
	r.SetupRoutes()
	return r.GetEngine()
}

func TestRouteGuards(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/v1/lists", http.StatusUnauthorized},
		{http.MethodDelete, "/api/v1/lists/1/items/completed", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/recipes/1/image", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/users/profile", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/internal/broadcast", http.StatusNotFound},
		{http.MethodGet, "/api/v1/nothing", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != tt.want {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.want, w.Code)
		}
	}
}
