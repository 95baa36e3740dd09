package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/garderoba/internal/auth"
	"github.com/erazemk/garderoba/internal/gateway"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/triage"
)

// Deps are the collaborators the API serves from.
type Deps struct {
	DB      *sql.DB
	Tokens  *auth.Tokens
	Gateway *gateway.Gateway
	Triage  *triage.Service
	// Limiter throttles AI-backed routes. Nil means no limit.
	Limiter *RateLimiter
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, Tokens: d.Tokens}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Gateway: d.Gateway}
	profileHandler := &ProfileHandler{DB: d.DB}
	triageHandler := &TriageHandler{Service: d.Triage}

	authMW := AuthMiddleware(d.Tokens, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	limitAI := func(h http.Handler) http.Handler { return h }
	if d.Limiter != nil {
		limitAI = d.Limiter.Middleware
	}

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: each user sees only their own closet.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("POST /api/items/photo", authMW(limitAI(http.HandlerFunc(itemsHandler.CreateFromPhoto))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/worn", authMW(http.HandlerFunc(itemsHandler.Worn)))
	mux.Handle("PUT /api/items/{id}/status", authMW(http.HandlerFunc(itemsHandler.SetStatus)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))
	mux.Handle("GET /api/items/{id}/history", authMW(http.HandlerFunc(itemsHandler.GetHistory)))
	mux.Handle("POST /api/items/{id}/guide", authMW(limitAI(http.HandlerFunc(itemsHandler.Guide))))

	// Style profile.
	mux.Handle("GET /api/profile", authMW(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("POST /api/profile/{field}/{value}", authMW(http.HandlerFunc(profileHandler.Add)))
	mux.Handle("DELETE /api/profile/{field}/{value}", authMW(http.HandlerFunc(profileHandler.Remove)))

	// Triage.
	mux.Handle("POST /api/triage", authMW(limitAI(http.HandlerFunc(triageHandler.Start))))
	mux.Handle("GET /api/triage", authMW(http.HandlerFunc(triageHandler.Current)))
	mux.Handle("POST /api/triage/decide", authMW(http.HandlerFunc(triageHandler.Decide)))
	mux.Handle("DELETE /api/triage", authMW(http.HandlerFunc(triageHandler.Reset)))

	return mux
}
