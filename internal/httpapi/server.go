// Package httpapi exposes the synthesis trigger endpoint consumed by the
// web client.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"xstream/internal/synthesis"
)

// Runner abstracts the pipeline for handler tests.
type Runner interface {
	Run(ctx context.Context, liquidID string, informational bool) (*synthesis.Outcome, error)
}

type Server struct {
	pipeline Runner
	log      *zap.Logger
}

func NewServer(pipeline Runner, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{pipeline: pipeline, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/synthesize", s.handleSynthesize)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

type synthesizeRequest struct {
	LiquidID      string `json:"liquid_id"`
	Informational bool   `json:"informational,omitempty"`
}

type outcomePayload struct {
	Face      string         `json:"face"`
	Narrative string         `json:"narrative,omitempty"`
	Content   map[string]any `json:"content,omitempty"`
	Skill     map[string]any `json:"skill,omitempty"`
	SolidID   string         `json:"solid_id,omitempty"`
	Model     string         `json:"model,omitempty"`
}

type synthesizeResponse struct {
	Success bool            `json:"success"`
	Result  *outcomePayload `json:"result,omitempty"`
	Stored  bool            `json:"stored,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// handleSynthesize returns the uniform envelope for every outcome: the
// taxonomy error message goes to the caller verbatim, no retries.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, synthesizeResponse{Success: false, Error: "invalid request body"})
		return
	}
	if req.LiquidID == "" {
		writeJSON(w, http.StatusBadRequest, synthesizeResponse{Success: false, Error: "liquid_id is required"})
		return
	}

	outcome, err := s.pipeline.Run(r.Context(), req.LiquidID, req.Informational)
	if err != nil {
		s.log.Warn("synthesis failed", zap.String("liquid_id", req.LiquidID), zap.Error(err))
		writeJSON(w, statusFor(err), synthesizeResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, synthesizeResponse{
		Success: true,
		Stored:  outcome.Stored,
		Result:  payloadFor(outcome),
	})
}

func payloadFor(outcome *synthesis.Outcome) *outcomePayload {
	p := &outcomePayload{
		Face:      string(outcome.Face),
		Narrative: outcome.Narrative,
		SolidID:   outcome.SolidID,
		Model:     outcome.Model,
	}
	if outcome.Content != nil {
		p.Content = map[string]any{
			"type": string(outcome.Content.Type),
			"name": outcome.Content.Name,
			"data": outcome.Content.Data,
		}
	}
	if outcome.Skill != nil {
		faces := make([]string, 0, len(outcome.Skill.AppliesTo))
		for _, f := range outcome.Skill.AppliesTo {
			faces = append(faces, string(f))
		}
		p.Skill = map[string]any{
			"name":       outcome.Skill.Name,
			"category":   string(outcome.Skill.Category),
			"applies_to": faces,
			"content":    outcome.Skill.Content,
		}
	}
	return p
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, synthesis.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, synthesis.ErrParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, synthesis.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
