package handler

import (
	"log/slog"
	"net/http"

	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/middleware"
)

const healthPath = "/health"

// Router настраивает маршруты API
type Router struct {
	mux              *http.ServeMux
	logger           *slog.Logger
	jwtSecret        []byte
	reviewHandler    *ReviewHandler
	candidateHandler *CandidateHandler
}

// NewRouter создаёт новый роутер
func NewRouter(reviewHandler *ReviewHandler, candidateHandler *CandidateHandler, jwtSecret []byte, logger *slog.Logger) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		logger:           logger,
		jwtSecret:        jwtSecret,
		reviewHandler:    reviewHandler,
		candidateHandler: candidateHandler,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	rh := r.reviewHandler
	r.mux.HandleFunc("POST /reviews/self-reflection", rh.CreateSelfReflection)
	r.mux.HandleFunc("POST /reviews", rh.CreateManagerReview)
	r.mux.HandleFunc("GET /reviews", rh.List)
	r.mux.HandleFunc("GET /reviews/my-reflection-status", rh.MyReflectionStatus)
	r.mux.HandleFunc("GET /reviews/team-status", rh.TeamStatus)
	r.mux.HandleFunc("GET /reviews/trend", rh.Trend)
	r.mux.HandleFunc("GET /reviews/{id}", rh.Get)
	r.mux.HandleFunc("PUT /reviews/{id}", rh.Update)
	r.mux.HandleFunc("PUT /reviews/{id}/commit-self", rh.CommitSelf)
	r.mux.HandleFunc("PUT /reviews/{id}/commit", rh.CommitManager)
	r.mux.HandleFunc("PUT /reviews/{id}/uncommit", rh.Uncommit)

	ch := r.candidateHandler
	r.mux.HandleFunc("POST /candidates", ch.Create)
	r.mux.HandleFunc("GET /candidates/pipeline", ch.Pipeline)
	r.mux.HandleFunc("GET /candidates/pipeline/export", ch.ExportPipeline)
	r.mux.HandleFunc("GET /candidates/{id}", ch.Get)
	r.mux.HandleFunc("PUT /candidates/{id}/stage", ch.TransitionStage)
	r.mux.HandleFunc("GET /candidates/{id}/history", ch.History)
	r.mux.HandleFunc("POST /candidates/{id}/notes", ch.AddNote)
	r.mux.HandleFunc("POST /candidates/{id}/interviews", ch.ScheduleInterview)
	r.mux.HandleFunc("PUT /candidates/{id}/interviews/{interviewId}/complete", ch.CompleteInterview)
	r.mux.HandleFunc("POST /candidates/{id}/offer", ch.MakeOffer)
	r.mux.HandleFunc("POST /candidates/{id}/offer/accept", ch.AcceptOffer)
	r.mux.HandleFunc("GET /candidates/{id}/promotion-status", ch.PromotionStatus)
	r.mux.HandleFunc("POST /candidates/{id}/promote", ch.Promote)
	r.mux.HandleFunc("POST /candidates/{id}/confirm-arrival", ch.ConfirmArrival)
	r.mux.HandleFunc("PUT /candidates/{id}/contract", ch.UpdateContract)
	r.mux.HandleFunc("POST /candidates/{id}/references", ch.AddReference)
	r.mux.HandleFunc("PUT /candidates/{id}/references/{refId}", ch.UpdateReference)
	r.mux.HandleFunc("POST /candidates/{id}/background-checks", ch.AddBackgroundCheck)
	r.mux.HandleFunc("PUT /candidates/{id}/background-checks/{checkId}", ch.UpdateBackgroundCheck)
	r.mux.HandleFunc("PUT /candidates/{id}/onboarding-tasks/{taskId}/complete", ch.CompleteOnboardingTask)
	r.mux.HandleFunc("POST /candidates/{id}/policies/{policyId}/acknowledge", ch.AcknowledgePolicy)

	// Health check
	health := newBase(r.logger)
	r.mux.HandleFunc("GET "+healthPath, func(w http.ResponseWriter, req *http.Request) {
		health.respondJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
	})

	// Применяем middleware
	handler := middleware.ContentType(r.mux)
	handler = middleware.Authenticate(r.jwtSecret, healthPath)(handler)
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.RequestMeta(handler)
	handler = middleware.Recoverer(r.logger)(handler)

	return handler
}
