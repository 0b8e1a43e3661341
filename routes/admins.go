package routes

import (
	"net/http"
	"time"

	"github.com/duwit-online/engageloop-sub001/controllers/admins"
	"github.com/duwit-online/engageloop-sub001/middleware"

	"github.com/gorilla/mux"
)

// SetAdminRoutes registers the admin surface on the given subrouter.
func SetAdminRoutes(api *mux.Router) {
	adminLoginLimiter := middleware.NewIPRateLimiter(30, 5*time.Minute)

	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(admins.Login))).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuthMiddleware)

	// Engagement task CRUD
	admin.Handle("/tasks", http.HandlerFunc(admins.TaskListHandler)).Methods(http.MethodGet)
	admin.Handle("/tasks", http.HandlerFunc(admins.CreateTaskHandler)).Methods(http.MethodPost)
	admin.Handle("/tasks/{id:[0-9]+}", http.HandlerFunc(admins.UpdateTaskHandler)).Methods(http.MethodPut)
	admin.Handle("/tasks/{id:[0-9]+}", http.HandlerFunc(admins.DeleteTaskHandler)).Methods(http.MethodDelete)

	// Submission review
	admin.Handle("/submissions", http.HandlerFunc(admins.SubmissionQueueHandler)).Methods(http.MethodGet)
	admin.Handle("/submissions/{id:[0-9]+}/verify", http.HandlerFunc(admins.VerifySubmissionHandler)).Methods(http.MethodPost)
	admin.Handle("/submissions/{id:[0-9]+}/reject", http.HandlerFunc(admins.RejectSubmissionHandler)).Methods(http.MethodPost)
	admin.Handle("/submissions/{id:[0-9]+}/flag", http.HandlerFunc(admins.FlagSubmissionHandler)).Methods(http.MethodPost)
	admin.Handle("/submissions/{id:[0-9]+}/reverse", http.HandlerFunc(admins.ReverseSubmissionHandler)).Methods(http.MethodPost)

	// Trust ledger moderation
	admin.Handle("/trust/{user_id:[0-9]+}", http.HandlerFunc(admins.GetTrustHandler)).Methods(http.MethodGet)
	admin.Handle("/trust/{user_id:[0-9]+}/adjust", http.HandlerFunc(admins.AdjustTrustHandler)).Methods(http.MethodPost)
	admin.Handle("/trust/{user_id:[0-9]+}/cooldown", http.HandlerFunc(admins.SetCooldownHandler)).Methods(http.MethodPost)
}
