package handlers

import (
	"net/http"

	"github.com/francosolari/nba-props-board/middleware"
	"github.com/francosolari/nba-props-board/services"
)

type SeasonHandler struct {
	seasons services.SeasonService
}

func NewSeasonHandler(seasons services.SeasonService) *SeasonHandler {
	return &SeasonHandler{seasons: seasons}
}

func (h *SeasonHandler) GetAllSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.seasons.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"seasons": seasons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeasonHandler) GetCurrentSeason(w http.ResponseWriter, r *http.Request) {
	season, err := h.seasons.Current(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetParticipatedSeasons lists the seasons the viewer submitted
// predictions for; the bearer token is forwarded as is.
func (h *SeasonHandler) GetParticipatedSeasons(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenFromContext(r.Context())
	seasons, err := h.seasons.Participated(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"seasons": seasons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
