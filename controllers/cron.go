package controllers

import (
	"net/http"
	"os"

	"github.com/duwit-online/engageloop-sub001/database"
	"github.com/duwit-online/engageloop-sub001/tasks"
	"github.com/duwit-online/engageloop-sub001/utils"
)

// POST /api/cron/release-sweep
//
// External trigger for the release sweep, for deployments that prefer a cron
// job over the built-in ticker. Both paths run the same idempotent sweep, so
// overlapping triggers are harmless.
func CronReleaseSweepHandler(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-CRON-KEY")
	if key == "" || key != os.Getenv("CRON_KEY") {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary := tasks.NewSweeper(database.DB).Run(r.Context())

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Release sweep completed",
		Data: map[string]interface{}{
			"scanned":  summary.Scanned,
			"released": summary.Released,
			"not_due":  summary.NotDue,
			"skipped":  summary.Skipped,
			"failed":   summary.Failed,
		},
	})
}
