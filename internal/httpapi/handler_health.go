package httpapi

import "net/http"

// HealthHandler reports liveness. The service has no external state to
// probe; reachable means healthy.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
