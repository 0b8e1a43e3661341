package routes

import (
	"net/http"
	"time"

	"github.com/duwit-online/engageloop-sub001/controllers/auth"
	"github.com/duwit-online/engageloop-sub001/controllers/users"
	"github.com/duwit-online/engageloop-sub001/middleware"

	"github.com/gorilla/mux"
)

// UsersRoutes registers every user-facing route on the given subrouter.
func UsersRoutes(api *mux.Router) {
	// Login/register limiter: 60 per IP per 5 minutes.
	loginLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)
	// Session limiter: 120 reads / 60 writes per user per minute.
	userLimiter := middleware.NewUserRateLimiter(120, 60, 60)

	// Register & Login
	api.Handle("/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/refresh", loginLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/logout", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutHandler)))).Methods(http.MethodPost)

	// Engagement tasks with tier-resolved dwell requirements
	api.Handle("/users/tasks", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.TaskListHandler)))).Methods(http.MethodGet)

	// Submissions
	api.Handle("/users/submissions", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.SubmissionCreateHandler)))).Methods(http.MethodPost)
	api.Handle("/users/submissions", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.SubmissionListHandler)))).Methods(http.MethodGet)

	// Trust profile and capsule transaction history
	api.Handle("/users/trust", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.TrustProfileHandler)))).Methods(http.MethodGet)
	api.Handle("/users/transactions", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.GetCapsuleTransactions)))).Methods(http.MethodGet)
}
