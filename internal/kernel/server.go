package kernel

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/composegrid/internal/model"
)

// Routes returns the introspection router.
func (k *Kernel) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", k.healthHandler)
	r.Get("/models", k.modelsHandler)
	r.Get("/models/*", k.modelHandler)
	return r
}

// healthHandler reports whether the root container is commissioned.
func (k *Kernel) healthHandler(w http.ResponseWriter, r *http.Request) {
	k.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	if !k.root.IsCommissioned() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "NOT READY")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (k *Kernel) modelsHandler(w http.ResponseWriter, r *http.Request) {
	k.writeJSON(w, http.StatusOK, newModelView(k.root, true))
}

func (k *Kernel) modelHandler(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	m, err := k.root.GetModel(path)
	switch {
	case errors.Is(err, model.ErrNotFound):
		k.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case err != nil:
		k.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	k.writeJSON(w, http.StatusOK, newModelView(m, false))
}

func (k *Kernel) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		k.logger.Error("Failed to encode response.", "error", err)
	}
}
