package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/infra/logging"
	"nutriplan-backend/internal/infra/notify"
	"nutriplan-backend/internal/usecase"
)

const dateLayout = "2006-01-02"

// Server is the client-facing API consumed by the PWA.
type Server struct {
	ents    usecase.EntitlementUseCase
	planner usecase.PlannerUseCase
	billing usecase.BillingUseCase
	chat    usecase.ChatUseCase
	hub     *notify.Hub
	log     *zerolog.Logger
}

func NewServer(
	ents usecase.EntitlementUseCase,
	planner usecase.PlannerUseCase,
	billing usecase.BillingUseCase,
	chat usecase.ChatUseCase,
	hub *notify.Hub,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "client-api").Logger()
	return &Server{ents: ents, planner: planner, billing: billing, chat: chat, hub: hub, log: &l}
}

// Router builds the chi route tree. The auth middleware guards everything
// under /api/v1; health stays open for probes.
func (s *Server) Router(jwtSecret []byte) http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID)
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(jwtSecret))
		r.Get("/entitlement", s.handleEntitlement)
		r.Post("/plans/generate", s.handleGenerate)
		r.Get("/plans/week", s.handleWeek)
		r.Get("/events", s.handleEvents)
		r.Post("/billing/checkout", s.handleCheckout)
		r.Post("/billing/refresh", s.handleRefresh)
		r.Post("/chat", s.handleChat)
	})
	return r
}

type entitlementResponse struct {
	HasAccess      bool   `json:"has_access"`
	Tier           string `json:"tier"`
	TrialActive    bool   `json:"trial_active"`
	TrialExpired   bool   `json:"trial_expired"`
	TrialRemaining int64  `json:"trial_remaining_seconds"`
	TrialStarted   bool   `json:"trial_started,omitempty"`
}

func (s *Server) handleEntitlement(w http.ResponseWriter, r *http.Request) {
	ent, err := s.ents.Resolve(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entitlementResponse{
		HasAccess:      ent.HasAccess,
		Tier:           string(ent.Tier),
		TrialActive:    ent.TrialActive,
		TrialExpired:   ent.TrialExpired,
		TrialRemaining: int64(ent.TrialRemaining / time.Second),
		TrialStarted:   ent.TrialStarted,
	})
}

type generateRequest struct {
	WeekStart string `json:"week_start"`
}

type planItemResponse struct {
	Day      string          `json:"day"`
	MealType string          `json:"meal_type"`
	Recipe   *recipeResponse `json:"recipe"`
}

type recipeResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	MealType    string `json:"meal_type"`
	Calories    int    `json:"calories"`
	PrepMinutes int    `json:"prep_minutes"`
	ImageURL    string `json:"image_url,omitempty"`
}

type planResponse struct {
	ID              string             `json:"id"`
	WeekStart       string             `json:"week_start"`
	CalorieTarget   int                `json:"calorie_target"`
	MealsPerDay     int                `json:"meals_per_day"`
	Items           []planItemResponse `json:"items"`
	RepeatedRecipes bool               `json:"repeated_recipes"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	weekStart, err := time.Parse(dateLayout, req.WeekStart)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad_request", "week_start must be YYYY-MM-DD")
		return
	}

	gen, err := s.planner.Generate(r.Context(), UserID(r.Context()), weekStart)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := planResponse{
		ID:              gen.Plan.ID,
		WeekStart:       gen.Plan.StartDate.Format(dateLayout),
		CalorieTarget:   gen.Plan.CalorieTarget,
		MealsPerDay:     gen.Plan.MealsPerDay,
		Items:           make([]planItemResponse, 0, len(gen.Items)),
		RepeatedRecipes: gen.RepeatedRecipes,
	}
	for _, it := range gen.Items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	writeJSON(w, http.StatusCreated, resp)
}

type weekResponse struct {
	WeekStart string                        `json:"week_start"`
	Days      map[string][]planItemResponse `json:"days"`
}

// handleWeek never surfaces an error to the client: a missing or broken plan
// renders as an empty week.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		if parsed, err := time.Parse(dateLayout, raw); err == nil {
			date = parsed
		}
	}

	view, err := s.planner.WeekView(r.Context(), UserID(r.Context()), date)
	if err != nil || view == nil {
		view = model.NewEmptyWeekView(model.MondayOf(date))
	}

	resp := weekResponse{
		WeekStart: view.WeekStart.Format(dateLayout),
		Days:      make(map[string][]planItemResponse, len(view.Days)),
	}
	for day, items := range view.Days {
		out := make([]planItemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toItemResponse(it))
		}
		resp.Days[day] = out
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEvents streams row-change notifications for the caller as SSE. The
// hub filters server-side: a client only ever sees its own rows.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorCode(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}
	userID := UserID(r.Context())

	events, cancel := s.hub.Subscribe(userID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

type checkoutRequest struct {
	Tier string `json:"tier"`
}

type checkoutResponse struct {
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	session, err := s.billing.Checkout(r.Context(), UserID(r.Context()), req.Tier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{URL: session.URL, Reference: session.Reference})
}

type refreshResponse struct {
	Synced bool   `json:"synced"`
	Tier   string `json:"tier,omitempty"`
	Status string `json:"status,omitempty"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sub, err := s.billing.Refresh(r.Context(), UserID(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Provider knows no subscription; nothing to sync.
			writeJSON(w, http.StatusOK, refreshResponse{Synced: false})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Synced: true, Tier: string(sub.Tier), Status: string(sub.Status)})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	ctx := logging.WithSessID(r.Context(), req.SessionID)
	reply, err := s.chat.Send(ctx, UserID(ctx), req.SessionID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func toItemResponse(it *model.PlanItem) planItemResponse {
	out := planItemResponse{
		Day:      model.DayNames[it.DayIndex],
		MealType: string(it.MealType),
	}
	if it.Recipe != nil {
		out.Recipe = &recipeResponse{
			ID:          it.Recipe.ID,
			Title:       it.Recipe.Title,
			MealType:    string(it.Recipe.MealType),
			Calories:    it.Recipe.Calories,
			PrepMinutes: it.Recipe.PrepMinutes,
			ImageURL:    it.Recipe.ImageURL,
		}
	}
	return out
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// writeError folds domain sentinels into status codes and stable error codes
// the client can branch on.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEntitlementRequired):
		writeErrorCode(w, http.StatusForbidden, "entitlement_required", "an active trial or subscription is required")
	case errors.Is(err, domain.ErrEmptyCatalog):
		writeErrorCode(w, http.StatusConflict, "empty_catalog", "no recipes available to build a plan")
	case errors.Is(err, domain.ErrGenerationInProgress):
		writeErrorCode(w, http.StatusConflict, "generation_in_progress", "a plan generation is already running for this week")
	case errors.Is(err, domain.ErrRateLimited):
		writeErrorCode(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeErrorCode(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		writeErrorCode(w, http.StatusInternalServerError, "persistence_failed", "operation failed")
	}
}
