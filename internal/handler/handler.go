// Package handler exposes the generation pipeline as a JSON/SSE API for
// the browser UI.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoaithanhsp/english-assistant-pro/internal/generator"
	appI18n "github.com/hoaithanhsp/english-assistant-pro/internal/i18n"
	"github.com/hoaithanhsp/english-assistant-pro/internal/llm"
	"github.com/hoaithanhsp/english-assistant-pro/internal/model"
	"github.com/hoaithanhsp/english-assistant-pro/internal/store"
)

// ExamGenerator is the slice of the pipeline the handler needs.
type ExamGenerator interface {
	Generate(ctx context.Context, cfg model.ExamConfig, apiKey string, obs generator.Observer) (*model.ExamData, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	gen    ExamGenerator
	models []string
}

// New creates a new Handler. models is the candidate list shown to the
// settings UI.
func New(s *store.Store, gen ExamGenerator, models []string) *Handler {
	return &Handler{store: s, gen: gen, models: models}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/exam/generate", h.handleGenerate)
	r.Get("/api/models", h.handleModels)
	r.Get("/api/settings", h.handleGetSettings)
	r.Put("/api/settings", h.handlePutSettings)
}

type progressEvent struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

type errorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleGenerate runs the pipeline and streams progress, then the result,
// as server-sent events. The browser-supplied X-Api-Key header takes
// precedence over the stored key.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var cfg model.ExamConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	apiKey := r.Header.Get("X-Api-Key")
	if apiKey == "" {
		stored, err := h.store.APIKey()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		apiKey = stored
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	obs := generator.ObserverFunc(func(p generator.Phase) {
		h.sendEvent(w, flusher, "progress", progressEvent{
			Phase:   phaseName(p),
			Message: appI18n.T(ctx, phaseMessageID(p)),
		})
	})

	data, err := h.gen.Generate(ctx, cfg, apiKey, obs)
	if err != nil {
		slog.Error("exam generation failed", "level", cfg.Level, "grade", cfg.GradeLevel, "error", err)
		code := errorCode(err)
		h.sendEvent(w, flusher, "error", errorEvent{
			Code:    code,
			Message: localizedError(ctx, code, err),
		})
		return
	}

	slog.Info("exam generated", "level", cfg.Level, "grade", cfg.GradeLevel,
		"sections", len(data.Content), "answers", len(data.Answers))
	h.sendEvent(w, flusher, "result", data)
}

func (h *Handler) sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal SSE payload", "event", event, "error", err)
		return
	}
	if _, err := w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
		slog.Warn("write SSE event", "event", event, "error", err)
		return
	}
	flusher.Flush()
}

func phaseName(p generator.Phase) string {
	if p == generator.PhaseSynthesizing {
		return "synthesizing"
	}
	return "analyzing"
}

func phaseMessageID(p generator.Phase) string {
	if p == generator.PhaseSynthesizing {
		return "progress.synthesizing"
	}
	return "progress.analyzing"
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, llm.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, generator.ErrResponseTooLarge):
		return "response_too_large"
	}
	var allFailed *llm.AllModelsFailedError
	if errors.As(err, &allFailed) {
		return "all_models_failed"
	}
	return "generation_failed"
}

func localizedError(ctx context.Context, code string, err error) string {
	switch code {
	case "missing_credential", "response_too_large":
		return appI18n.T(ctx, "error."+code)
	case "all_models_failed":
		var allFailed *llm.AllModelsFailedError
		reason := err.Error()
		if errors.As(err, &allFailed) && allFailed.Last != nil {
			reason = allFailed.Last.Error()
		}
		return appI18n.Td(ctx, "error.all_models_failed", map[string]any{"Reason": reason})
	default:
		return appI18n.Td(ctx, "error.generation_failed", map[string]any{"Reason": err.Error()})
	}
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"models": h.models})
}

type settingsResponse struct {
	PreferredModel string `json:"preferredModel"`
	HasAPIKey      bool   `json:"hasApiKey"`
}

type settingsRequest struct {
	// nil fields are left unchanged.
	PreferredModel *string `json:"preferredModel"`
	APIKey         *string `json:"apiKey"`
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	preferred, err := h.store.PreferredModel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	key, err := h.store.APIKey()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// The key itself is never echoed back.
	writeJSON(w, settingsResponse{PreferredModel: preferred, HasAPIKey: key != ""})
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.PreferredModel != nil {
		if err := h.store.SetPreferredModel(*req.PreferredModel); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if req.APIKey != nil {
		if err := h.store.SetAPIKey(*req.APIKey); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	h.handleGetSettings(w, r)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}
