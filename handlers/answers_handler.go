package handlers

import (
	"net/http"

	"github.com/francosolari/nba-props-board/middleware"
	"github.com/francosolari/nba-props-board/services"
	"github.com/francosolari/nba-props-board/upstream"
)

type AnswersHandler struct {
	submissions services.SubmissionService
}

func NewAnswersHandler(submissions services.SubmissionService) *AnswersHandler {
	return &AnswersHandler{submissions: submissions}
}

func (h *AnswersHandler) GetAnswers(w http.ResponseWriter, r *http.Request) {
	slug, err := getSlugFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token := middleware.GetTokenFromContext(r.Context())
	answers, err := h.submissions.Answers(r.Context(), slug, token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if answers == nil {
		answers = []upstream.AnswerItem{}
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"answers": answers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type saveAnswersRequest struct {
	Answers []upstream.AnswerItem `json:"answers"`
}

// SaveAnswers forwards a batch of answers to the backend while the
// submission window is open. A partial save comes back as 200 with the
// per-question errors, the way the backend reports it.
func (h *AnswersHandler) SaveAnswers(w http.ResponseWriter, r *http.Request) {
	slug, err := getSlugFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req saveAnswersRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token := middleware.GetTokenFromContext(r.Context())
	result, err := h.submissions.SaveAnswers(r.Context(), slug, token, req.Answers)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
