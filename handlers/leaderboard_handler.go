package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/francosolari/nba-props-board/middleware"
	"github.com/francosolari/nba-props-board/models"
	"github.com/francosolari/nba-props-board/services"
	"github.com/francosolari/nba-props-board/viewstate"
)

type LeaderboardHandler struct {
	boards services.LeaderboardService
}

func NewLeaderboardHandler(boards services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{boards: boards}
}

// GetLeaderboard serves the assembled board view. Selection, section,
// sort, search and the what-if flag all travel as query parameters, so
// any view is shareable by link.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	slug, err := getSlugFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	opts := viewstate.InitOptions{}
	if viewerID, err := middleware.GetUserIDFromContext(r.Context()); err == nil {
		opts.LoggedInUserID = viewerID
	}

	view, err := h.boards.View(r.Context(), slug, opts, r.URL.Query())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type simulateRequest struct {
	Users     []int            `json:"users"`
	Section   string           `json:"section"`
	Mode      string           `json:"mode"`
	SortBy    string           `json:"sortBy"`
	Query     string           `json:"q"`
	ShowAll   bool             `json:"all"`
	Overrides models.Overrides `json:"overrides"`
}

// state folds the request into a what-if view state. The scalar fields
// go through the same URL grammar the GET endpoint reads.
func (req simulateRequest) state() viewstate.State {
	q := url.Values{}
	if len(req.Users) > 0 {
		toks := make([]string, 0, len(req.Users))
		for _, id := range req.Users {
			toks = append(toks, strconv.Itoa(id))
		}
		q.Set("users", strings.Join(toks, ","))
	}
	if req.Section != "" {
		q.Set("section", req.Section)
	}
	if req.Mode != "" {
		q.Set("mode", req.Mode)
	}
	if req.SortBy != "" {
		q.Set("sortBy", req.SortBy)
	}
	if req.Query != "" {
		q.Set("q", req.Query)
	}
	if req.ShowAll {
		q.Set("all", "1")
	}

	st := viewstate.New(viewstate.InitOptions{}, q)
	st.SetWhatIf(true)
	st.Overrides = req.Overrides
	return st
}

// SimulateLeaderboard recomputes the board under hypothetical results:
// reordered conference standings and answers marked correct or
// incorrect. Nothing is stored; the response is the what-if view.
func (h *LeaderboardHandler) SimulateLeaderboard(w http.ResponseWriter, r *http.Request) {
	slug, err := getSlugFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req simulateRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.boards.Simulate(r.Context(), slug, req.state())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RefreshLeaderboard drops the cached snapshot and serves a freshly
// fetched view; the page's retry affordance lands here.
func (h *LeaderboardHandler) RefreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	slug, err := getSlugFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	h.boards.Invalidate(slug)

	opts := viewstate.InitOptions{}
	if viewerID, err := middleware.GetUserIDFromContext(r.Context()); err == nil {
		opts.LoggedInUserID = viewerID
	}

	view, err := h.boards.View(r.Context(), slug, opts, r.URL.Query())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
