// Package v1 exposes the Hiera Engine over HTTP. There is deliberately no
// authorisation middleware here; a caller embedding this handler wraps it
// with its own auth layer.
package v1

import (
	"encoding/json"
	"net/http"

	"github.com/Polqt/hieraengine/internal/admin"
	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/hiera"
)

// Handler builds the HTTP handler for the Hiera Engine admin and lookup
// API.
//
//	GET    /hiera/lookup/{key_id}                 → lookup (query: fact=, merge=)
//	POST   /key-models                            → create dynamic key model
//	DELETE /key-models/{id}                       → remove key model
//	POST   /keys                                  → create key
//	PATCH  /keys/{id}                              → rebind key model
//	DELETE /keys/{id}                              → delete key
//	POST   /levels                                → create level
//	PATCH  /levels/{id}                            → reorder priority
//	DELETE /levels/{id}                            → delete level
//	POST   /level-data                            → create level data
//	PATCH  /level-data                             → update level data
//	DELETE /level-data                             → delete level data
func Handler(surface *admin.Surface) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /hiera/lookup/{key_id}", func(w http.ResponseWriter, r *http.Request) {
		keyID := r.PathValue("key_id")
		facts := factsFromQuery(r)
		merge := r.URL.Query().Get("merge") == "true"

		var (
			result any
			err    error
		)
		if merge {
			result, err = surface.LookupMerge(r.Context(), keyID, facts)
		} else {
			result, err = surface.Lookup(r.Context(), keyID, facts)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": result})
	})

	mux.HandleFunc("POST /key-models", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID          string          `json:"id"`
			Description string          `json:"description"`
			Schema      json.RawMessage `json:"schema"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, herrors.Newf(herrors.InvalidInput, "decode request: %v", err))
			return
		}
		km, err := surface.CreateKeyModel(r.Context(), req.ID, req.Description, req.Schema)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, km)
	})

	mux.HandleFunc("DELETE /key-models/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := surface.DeleteKeyModel(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /keys", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID          string `json:"id"`
			KeyModelID  string `json:"key_model_id"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, herrors.Newf(herrors.InvalidInput, "decode request: %v", err))
			return
		}
		k, err := surface.CreateKey(r.Context(), req.ID, req.KeyModelID, req.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, k)
	})

	mux.HandleFunc("PATCH /keys/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			KeyModelID string `json:"key_model_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, herrors.Newf(herrors.InvalidInput, "decode request: %v", err))
			return
		}
		k, err := surface.UpdateKeyModelBinding(r.Context(), r.PathValue("id"), req.KeyModelID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, k)
	})

	mux.HandleFunc("DELETE /keys/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := surface.DeleteKey(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /levels", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID       string `json:"id"`
			Priority int    `json:"priority"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, herrors.Newf(herrors.InvalidInput, "decode request: %v", err))
			return
		}
		l, err := surface.CreateLevel(r.Context(), req.ID, req.Priority)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	})

	mux.HandleFunc("PATCH /levels/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Priority int `json:"priority"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, herrors.Newf(herrors.InvalidInput, "decode request: %v", err))
			return
		}
		l, err := surface.UpdateLevelPriority(r.Context(), r.PathValue("id"), req.Priority)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	})

	mux.HandleFunc("DELETE /levels/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := surface.DeleteLevel(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /level-data", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LevelID string            `json:"level_id"`
			KeyID   string            `json:"key_id"`
			Facts   map[string]string `json:"facts"`
			Data    json.RawMessage   `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, herrors.Newf(herrors.InvalidInput, "decode request: %v", err))
			return
		}
		data, err := hiera.DecodeValue(req.Data)
		if err != nil {
			writeError(w, herrors.Newf(herrors.InvalidInput, "decode data: %v", err))
			return
		}
		row, err := surface.CreateLevelData(r.Context(), req.LevelID, req.KeyID, req.Facts, data)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, row)
	})

	mux.HandleFunc("PATCH /level-data", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LevelID    string          `json:"level_id"`
			ExpandedID string          `json:"expanded_id"`
			KeyID      string          `json:"key_id"`
			Data       json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, herrors.Newf(herrors.InvalidInput, "decode request: %v", err))
			return
		}
		data, err := hiera.DecodeValue(req.Data)
		if err != nil {
			writeError(w, herrors.Newf(herrors.InvalidInput, "decode data: %v", err))
			return
		}
		row, err := surface.UpdateLevelData(r.Context(), req.LevelID, req.ExpandedID, req.KeyID, data)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	})

	mux.HandleFunc("DELETE /level-data", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		levelID, expandedID, keyID := q.Get("level_id"), q.Get("expanded_id"), q.Get("key_id")
		if err := surface.DeleteLevelData(r.Context(), levelID, expandedID, keyID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func factsFromQuery(r *http.Request) map[string]string {
	values := r.URL.Query()["fact"]
	facts := make(map[string]string, len(values))
	for _, item := range values {
		name, value, ok := splitOnce(item, ':')
		if !ok || name == "" || value == "" {
			continue
		}
		facts[name] = value
	}
	return facts
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch herrors.KindOf(err) {
	case herrors.NotFound:
		status = http.StatusNotFound
	case herrors.Duplicate:
		status = http.StatusConflict
	case herrors.InvalidInput:
		status = http.StatusBadRequest
	case herrors.InUse:
		status = http.StatusConflict
	case herrors.Unauthorized:
		status = http.StatusUnauthorized
	case herrors.BackendUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
