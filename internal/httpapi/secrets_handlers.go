package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"jobmonitor/internal/config"
	"jobmonitor/internal/secrets"
)

type SecretsHandler struct {
	Config func() config.Config
}

type setSecretReq struct {
	Value string `json:"value"`
}

func secretKind(w http.ResponseWriter, r *http.Request) (secrets.Kind, bool) {
	kind := secrets.Kind(chi.URLParam(r, "kind"))
	if kind != secrets.SMTPPassword && kind != secrets.TelegramToken {
		WriteError(w, r, http.StatusNotFound, "unknown_secret", "unknown secret kind")
		return "", false
	}
	return kind, true
}

// Set stores a secret in the OS keychain. kind is smtp or telegram.
func (h SecretsHandler) Set(w http.ResponseWriter, r *http.Request) {
	kind, ok := secretKind(w, r)
	if !ok {
		return
	}

	var req setSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	if err := secrets.Set(kind, h.Config(), req.Value); err != nil {
		WriteError(w, r, http.StatusBadRequest, "store_failed", "failed to store secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a stored secret; 404 when the keychain has none.
func (h SecretsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := secretKind(w, r)
	if !ok {
		return
	}
	if err := secrets.Delete(kind, h.Config()); err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
			return
		}
		WriteError(w, r, http.StatusBadRequest, "delete_failed", "failed to delete secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
