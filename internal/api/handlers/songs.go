package handlers

import (
	"gig-finder-service/internal/api/dto"
	"gig-finder-service/internal/platform/obs"
	"gig-finder-service/internal/ports"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// SongHandler searches the music catalog for cover originals.
type SongHandler struct {
	Searcher ports.TrackSearcher
}

func (h *SongHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "q is required")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	tracks, err := h.Searcher.SearchTracks(r.Context(), query, limit)
	if err != nil {
		slog.Error("search tracks failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusBadGateway, "music catalog unavailable")
		return
	}

	res := dto.SearchTracksResponse{
		Query:  query,
		Tracks: make([]dto.TrackResponse, 0, len(tracks)),
	}
	for _, t := range tracks {
		res.Tracks = append(res.Tracks, dto.TrackResponse{
			ID:          t.ID,
			Name:        t.Name,
			Artists:     t.Artists,
			Album:       t.Album,
			ImageURL:    t.ImageURL,
			PreviewURL:  t.PreviewURL,
			ExternalURL: t.ExternalURL,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
