package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/service"
)

type ReviewHandler struct {
	base
	reviews service.ReviewService
}

func NewReviewHandler(reviews service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{base: newBase(logger), reviews: reviews}
}

func (h *ReviewHandler) CreateSelfReflection(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req dto.CreateSelfReflectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.reviews.CreateSelfReflection(r.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *ReviewHandler) CreateManagerReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req dto.CreateManagerReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.reviews.CreateManagerReview(r.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.reviews.UpdateReview(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ReviewHandler) CommitSelf(w http.ResponseWriter, r *http.Request) {
	h.commit(w, r, service.SideSelf)
}

func (h *ReviewHandler) CommitManager(w http.ResponseWriter, r *http.Request) {
	h.commit(w, r, service.SideManager)
}

func (h *ReviewHandler) commit(w http.ResponseWriter, r *http.Request, side service.ReviewSide) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.reviews.Commit(r.Context(), actor, id, side)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ReviewHandler) Uncommit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.reviews.Uncommit(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.reviews.GetReview(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	employeeID, err := queryInt64(r, "employee_id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}
	query := dto.ListReviewsQuery{
		EmployeeID: employeeID,
		From:       queryString(r, "from"),
		To:         queryString(r, "to"),
	}
	if !h.validate(w, &query) {
		return
	}

	resp, err := h.reviews.ListReviews(r.Context(), actor, &query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if resp == nil {
		resp = []dto.ReviewResponse{}
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ReviewHandler) MyReflectionStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	resp, err := h.reviews.GetMyReflectionStatus(r.Context(), actor)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ReviewHandler) TeamStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	resp, err := h.reviews.GetTeamStatus(r.Context(), actor)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ReviewHandler) Trend(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var query dto.TrendQuery
	values := r.URL.Query()
	employeeID, err1 := strconv.ParseInt(values.Get("employee_id"), 10, 64)
	year, err2 := strconv.Atoi(values.Get("year"))
	quarter, err3 := strconv.Atoi(values.Get("quarter"))
	if err1 != nil || err2 != nil || err3 != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", "employee_id, year and quarter must be integers")
		return
	}
	query.EmployeeID, query.Year, query.Quarter = employeeID, year, quarter
	if !h.validate(w, &query) {
		return
	}

	resp, err := h.reviews.GetQuarterlyTrend(r.Context(), actor, &query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}
