package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/brandonreznik00/tennis-voice-ai/internal/store"
)

// GetSettingsHandler returns the club settings singleton.
func GetSettingsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, st.Settings())
	}
}

// UpdateSettingsHandler applies a partial update to the club settings and
// returns the merged record. New AI instructions take effect on the next
// call; active calls keep the session they started with.
func UpdateSettingsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd store.SettingsUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if upd.TotalCourts != nil && *upd.TotalCourts < 1 {
			writeError(w, http.StatusBadRequest, "totalCourts must be at least 1")
			return
		}
		writeJSON(w, http.StatusOK, st.UpdateSettings(upd))
	}
}
