package server

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/internal/metrics"
	"github.com/goliatone/go-formportal/internal/middleware"
	"github.com/goliatone/go-formportal/pkg/portal"
	"github.com/goliatone/go-formportal/pkg/render"
)

// Query parameters besides the token.
const (
	paramTab   = "tab"
	paramSaved = "saved"
)

const conflictMessage = "This record changed since the form was loaded. Review the current values and save again."

// failure is the HTTP rendition of a pipeline error.
type failure struct {
	status  int
	denial  render.Denial
	outcome string
	code    string
}

func classify(err error) failure {
	switch {
	case errors.Is(err, portal.ErrAccessDenied):
		return failure{http.StatusUnauthorized, render.DenialAccess, metrics.OutcomeAccessDenied, "access_denied"}
	case errors.Is(err, portal.ErrInvalidToken), errors.Is(err, portal.ErrDuplicateToken):
		return failure{http.StatusForbidden, render.DenialInvalidToken, metrics.OutcomeInvalidToken, "invalid_token"}
	case errors.Is(err, portal.ErrBackend):
		return failure{http.StatusBadGateway, render.DenialUnavailable, metrics.OutcomeBackendError, "backend_unavailable"}
	default:
		return failure{http.StatusInternalServerError, render.DenialUnavailable, metrics.OutcomeBackendError, "internal_error"}
	}
}

// handlePage renders the form for the requested tab.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	token, err := s.portal.Token(params)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	session, err := s.portal.Open(r.Context(), token)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := session.Form(params.Get(paramTab))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page.Saved = params.Get(paramSaved) == "1"

	s.record(metrics.OutcomeRendered)
	s.renderForm(w, r, http.StatusOK, token, page, nil)
}

// handleSubmit saves a form post and redirects back to the page, or
// re-renders the form with errors.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	token, err := s.portal.Token(params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	tab := params.Get(paramTab)
	result, err := s.portal.Save(r.Context(), token, tab, r.PostForm)
	var verr *portal.ValidationError
	switch {
	case err == nil:
		s.record(metrics.OutcomeSaved)
		http.Redirect(w, r, s.pageURL(token, result.Tab, true), http.StatusSeeOther)
	case errors.As(err, &verr):
		s.record(metrics.OutcomeInvalidInput)
		s.rerender(w, r, token, verr.Tab, http.StatusUnprocessableEntity, r.PostForm, verr.Fields)
	case errors.Is(err, portal.ErrConflict):
		s.record(metrics.OutcomeConflict)
		s.rerender(w, r, token, tab, http.StatusConflict, nil, map[string][]string{"": {conflictMessage}})
	default:
		s.fail(w, r, err)
	}
}

// rerender reads the record again and renders tab with errors. A non-nil
// form keeps the submitted values in the controls.
func (s *Server) rerender(w http.ResponseWriter, r *http.Request, token, tab string, status int, form url.Values, errs map[string][]string) {
	session, err := s.portal.Open(r.Context(), token)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := session.Form(tab)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if form != nil {
		page = session.Refill(page, form)
	}
	s.renderForm(w, r, status, token, page, errs)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, token string, page render.Page, errs map[string][]string) {
	page.LinkTabs(func(tab string) string {
		return s.pageURL(token, tab, false)
	})
	options := s.renderOptions()
	options.Action = s.pageURL(token, page.Tab, false)
	options.Errors = errs
	s.write(w, r, s.negotiate(w, r), status, page, options)
}

// fail renders the message page for a pipeline error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	f := classify(err)
	s.record(f.outcome)
	if f.status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	s.write(w, r, s.negotiate(w, r), f.status, render.DeniedPage(f.denial), s.renderOptions())
}

// negotiate picks the page renderer from the Accept header. Browsers and
// clients without a preference get HTML.
func (s *Server) negotiate(w http.ResponseWriter, r *http.Request) render.Renderer {
	w.Header().Add("Vary", "Accept")
	renderer, err := s.renderers.Negotiate(r.Header.Get("Accept"))
	if err != nil {
		return s.html
	}
	return renderer
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, renderer render.Renderer, status int, page render.Page, options render.RenderOptions) {
	out, err := renderer.Render(r.Context(), page, options)
	if err != nil {
		s.logger.Error("render failed",
			zap.String("renderer", renderer.Name()),
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(status)
	if _, err := w.Write(out); err != nil {
		s.logger.Debug("write response", zap.Error(err))
	}
}

func (s *Server) renderOptions() render.RenderOptions {
	return render.RenderOptions{
		Theme:   s.cfg.Theme.Name,
		Variant: s.cfg.Theme.Variant,
	}
}

// pageURL builds the link back to the portal page for token and tab.
func (s *Server) pageURL(token, tab string, saved bool) string {
	query := url.Values{}
	query.Set(s.portal.TokenParam(), token)
	if tab != "" {
		query.Set(paramTab, tab)
	}
	if saved {
		query.Set(paramSaved, "1")
	}
	return "/?" + query.Encode()
}

func (s *Server) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordOutcome(outcome)
	}
}
