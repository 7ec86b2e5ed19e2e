package handler

import (
	"net/http"

	"github.com/cycleconnect/server/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, cycles *service.CycleService, authLimiter *service.TokenBucket, cookieSecure bool) {
	authHandler := NewAuthHandler(auth, cookieSecure)
	cycleHandler := NewCycleHandler(cycles)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	// Account and session. Registration and login are rate limited per
	// client IP.
	mux.Handle("POST /api/v1/users/register", RateLimit(authLimiter, http.HandlerFunc(authHandler.HandleRegister)))
	mux.Handle("POST /api/v1/users/login", RateLimit(authLimiter, http.HandlerFunc(authHandler.HandleLogin)))
	mux.HandleFunc("POST /api/v1/users/logout", authHandler.HandleLogout)
	mux.Handle("GET /api/v1/users/me", RequireAuth(auth, http.HandlerFunc(authHandler.HandleMe)))
	mux.Handle("PUT /api/v1/users/avatar", RequireAuth(auth, http.HandlerFunc(authHandler.HandleAvatar)))

	// Cycle listings. Search and detail are public; registration requires
	// a session.
	mux.Handle("POST /api/v1/cycles", RequireAuth(auth, http.HandlerFunc(cycleHandler.HandleRegister)))
	mux.HandleFunc("POST /api/v1/cycles/search", cycleHandler.HandleSearch)
	mux.HandleFunc("GET /api/v1/cycles/{cycleId}", cycleHandler.HandleDetail)
}
