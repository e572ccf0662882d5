package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/internal/metrics"
	"github.com/goliatone/go-formportal/pkg/portal"
	"github.com/goliatone/go-formportal/pkg/render"
)

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// handleFormJSON returns the page model for the requested tab.
func (s *Server) handleFormJSON(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	token, err := s.portal.Token(params)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	session, err := s.portal.Open(r.Context(), token)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	page, err := session.Form(params.Get(paramTab))
	if err != nil {
		s.failJSON(w, r, err)
		return
	}

	s.record(metrics.OutcomeRendered)
	options := s.renderOptions()
	options.Action = "/api/form?" + r.URL.RawQuery
	s.write(w, r, s.json, http.StatusOK, page, options)
}

// handleSchema returns the JSON schema accepted by POST /api/form for the
// requested tab.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	token, err := s.portal.Token(params)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	session, err := s.portal.Open(r.Context(), token)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	tab, ok := session.Schema.ResolveTab(params.Get(paramTab))
	if !ok {
		writeJSON(w, s.logger, http.StatusNotFound, errorResponse{Error: "no_tabs", Message: "no tabs are configured"})
		return
	}
	writeJSON(w, s.logger, http.StatusOK, session.Schema.OpenAPI(tab))
}

// handleSubmitJSON saves a JSON object for the requested tab. Reserved keys
// (leading underscore) are not field values; _revision carries the revision
// the client loaded.
func (s *Server) handleSubmitJSON(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	token, err := s.portal.Token(params)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, s.logger, http.StatusBadRequest, errorResponse{Error: "invalid_json", Message: "request body must be a JSON object"})
		return
	}

	revision, _ := payload[render.FieldRevision].(string)
	for key := range payload {
		if render.IsReservedField(key) {
			delete(payload, key)
		}
	}

	tab := params.Get(paramTab)
	result, err := s.portal.SaveJSON(r.Context(), token, tab, payload, revision)
	var verr *portal.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		s.record(metrics.OutcomeInvalidInput)
		writeJSON(w, s.logger, http.StatusUnprocessableEntity, errorResponse{
			Error:   "invalid_input",
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
		return
	case errors.Is(err, portal.ErrConflict):
		s.record(metrics.OutcomeConflict)
		writeJSON(w, s.logger, http.StatusConflict, errorResponse{Error: "conflict", Message: conflictMessage})
		return
	default:
		s.failJSON(w, r, err)
		return
	}

	s.record(metrics.OutcomeSaved)
	session, err := s.portal.Open(r.Context(), token)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	page, err := session.Form(result.Tab)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	page.Saved = true
	s.write(w, r, s.json, http.StatusOK, page, s.renderOptions())
}

func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	f := classify(err)
	s.record(f.outcome)
	if f.status >= http.StatusInternalServerError {
		s.logger.Error("api request failed", zap.Error(err), zap.String("path", r.URL.Path))
	}
	message := render.Prepare(render.DeniedPage(f.denial), s.renderOptions()).Message
	writeJSON(w, s.logger, f.status, errorResponse{Error: f.code, Message: message})
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug("write json response", zap.Error(err))
	}
}
