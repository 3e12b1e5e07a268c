package handlers

import (
	"net/http"
)

// HealthHandler reports liveness plus which gig store and optional
// integrations the server was started with.
type HealthHandler struct {
	Storage string
	Catalog bool
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
	Catalog bool   `json:"catalog"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Storage: h.Storage,
		Catalog: h.Catalog,
	})
}
