package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CandidateHandler обслуживает воронку найма, записи адаптации и ворота продвижения
type CandidateHandler struct {
	base
	recruitment service.RecruitmentService
	records     service.CandidateRecordsService
	promotion   service.PromotionService
}

func NewCandidateHandler(
	recruitment service.RecruitmentService,
	records service.CandidateRecordsService,
	promotion service.PromotionService,
	logger *slog.Logger,
) *CandidateHandler {
	return &CandidateHandler{
		base:        newBase(logger),
		recruitment: recruitment,
		records:     records,
		promotion:   promotion,
	}
}

func (h *CandidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req dto.CreateCandidateRequest
	if !h.decode(w, r, &req) {
		return
	}

	candidate, err := h.recruitment.CreateCandidate(r.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, candidate)
}

func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.records.GetCandidate(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CandidateHandler) TransitionStage(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.TransitionStageRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.recruitment.TransitionStage(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CandidateHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	resp, err := h.recruitment.GetPipeline(r.Context(), actor)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CandidateHandler) ExportPipeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	data, err := h.recruitment.ExportPipeline(r.Context(), actor)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("pipeline-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write export", slog.Any("error", err))
	}
}

func (h *CandidateHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	history, err := h.recruitment.GetStageHistory(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, history)
}

func (h *CandidateHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.AddNoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	note, err := h.recruitment.AddNote(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, note)
}

func (h *CandidateHandler) ScheduleInterview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.ScheduleInterviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.recruitment.ScheduleInterview(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *CandidateHandler) CompleteInterview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	interviewID, ok := h.pathID(w, r, "interviewId")
	if !ok {
		return
	}
	var req dto.CompleteInterviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	interview, err := h.recruitment.CompleteInterview(r.Context(), actor, id, interviewID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, interview)
}

func (h *CandidateHandler) MakeOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.MakeOfferRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.recruitment.MakeOffer(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CandidateHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.recruitment.AcceptOffer(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CandidateHandler) PromotionStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.promotion.GetPromotionStatus(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CandidateHandler) Promote(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.promotion.Promote(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CandidateHandler) ConfirmArrival(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.ConfirmArrivalRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.promotion.ConfirmArrival(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CandidateHandler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateContractRequest
	if !h.decode(w, r, &req) {
		return
	}

	candidate, err := h.records.UpdateContract(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, candidate)
}

func (h *CandidateHandler) AddReference(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.AddReferenceRequest
	if !h.decode(w, r, &req) {
		return
	}

	ref, err := h.records.AddReference(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, ref)
}

func (h *CandidateHandler) UpdateReference(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	refID, ok := h.pathID(w, r, "refId")
	if !ok {
		return
	}
	var req dto.UpdateReferenceRequest
	if !h.decode(w, r, &req) {
		return
	}

	ref, err := h.records.UpdateReference(r.Context(), actor, id, refID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, ref)
}

func (h *CandidateHandler) AddBackgroundCheck(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.AddBackgroundCheckRequest
	if !h.decode(w, r, &req) {
		return
	}

	check, err := h.records.AddBackgroundCheck(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, check)
}

func (h *CandidateHandler) UpdateBackgroundCheck(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	checkID, ok := h.pathID(w, r, "checkId")
	if !ok {
		return
	}
	var req dto.UpdateBackgroundCheckRequest
	if !h.decode(w, r, &req) {
		return
	}

	check, err := h.records.UpdateBackgroundCheck(r.Context(), actor, id, checkID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, check)
}

func (h *CandidateHandler) CompleteOnboardingTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	taskID, ok := h.pathID(w, r, "taskId")
	if !ok {
		return
	}

	task, err := h.records.CompleteOnboardingTask(r.Context(), actor, id, taskID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, task)
}

func (h *CandidateHandler) AcknowledgePolicy(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	policyID, ok := h.pathID(w, r, "policyId")
	if !ok {
		return
	}

	ack, err := h.records.AcknowledgePolicy(r.Context(), actor, id, policyID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, ack)
}
