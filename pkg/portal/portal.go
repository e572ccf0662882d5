// Package portal runs the reporting pipeline: resolve the token, read the
// backend, find the caller's record, build the form for a tab and write
// submitted values back.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/pkg/events"
	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/render"
	"github.com/goliatone/go-formportal/pkg/schema"
	"github.com/goliatone/go-formportal/pkg/store"
	"github.com/goliatone/go-formportal/pkg/widgets"
)

// Portal wires the pipeline stages together. It holds no per-request state
// and is safe for concurrent use.
type Portal struct {
	gateway       store.Gateway
	logger        *zap.Logger
	widgets       *widgets.Registry
	publisher     events.Publisher
	dataTable     string
	configTable   string
	tokenParam    string
	strictTokens  bool
	newRevision   func() (string, error)
	now           func() time.Time
	schemaOptions []schema.Option
}

// New constructs a Portal. A gateway is required.
func New(options ...Option) (*Portal, error) {
	p := defaults()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.gateway == nil {
		return nil, errors.New("portal: gateway is required")
	}
	return p, nil
}

// TokenParam returns the request parameter carrying the token.
func (p *Portal) TokenParam() string {
	return p.tokenParam
}

// Token extracts the token from request parameters.
func (p *Portal) Token(params url.Values) (string, error) {
	return ResolveToken(params, p.tokenParam)
}

// ResolveToken reads the token parameter. A missing or blank value yields
// ErrAccessDenied.
func ResolveToken(params url.Values, name string) (string, error) {
	if name == "" {
		name = DefaultTokenParam
	}
	token := params.Get(name)
	if token == "" {
		return "", ErrAccessDenied
	}
	return token, nil
}

// Match is the outcome of Lookup.
type Match struct {
	// Row is the index of the first matching record, used as the write-back
	// address.
	Row int
	// Count is the number of records carrying the token.
	Count int
}

// Lookup finds the first record whose stringified Token cell equals token
// exactly. No match yields ErrInvalidToken.
func Lookup(data model.Table, token string) (Match, error) {
	matches := data.FindAll(model.ColumnToken, token)
	if len(matches) == 0 {
		return Match{}, ErrInvalidToken
	}
	return Match{Row: matches[0], Count: len(matches)}, nil
}

// Session is one authenticated view of the backend: the caller's record and
// the interpreted schema, read fresh for the request.
type Session struct {
	Token  string
	Row    int
	Client string
	Data   model.Table
	Schema schema.Schema
	// Issues combines schema problems with missing Data columns.
	Issues []schema.Issue

	widgets *widgets.Registry
}

// Open authenticates token against the current Data table and loads the
// schema. An empty token fails with ErrAccessDenied before any read. A token
// of only spaces is a token like any other and fails the lookup.
func (p *Portal) Open(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrAccessDenied
	}

	data, err := p.gateway.ReadTable(ctx, p.dataTable)
	if err != nil {
		return nil, backendError("read", p.dataTable, err)
	}

	match, err := Lookup(data, token)
	if err != nil {
		return nil, err
	}
	if match.Count > 1 {
		if p.strictTokens {
			return nil, ErrDuplicateToken
		}
		p.logger.Warn("token matches several records, using the first",
			zap.String("table", p.dataTable),
			zap.Int("row", match.Row),
			zap.Int("matches", match.Count),
		)
	}

	config, err := p.gateway.ReadTable(ctx, p.configTable)
	if err != nil {
		return nil, backendError("read", p.configTable, err)
	}

	built := schema.Build(config, p.schemaOptions...)
	issues := append(append([]schema.Issue(nil), built.Issues...), schema.Validate(built, data)...)
	for _, issue := range issues {
		p.logger.Debug("schema issue", zap.String("issue", issue.String()))
	}

	return &Session{
		Token:   token,
		Row:     match.Row,
		Client:  model.Stringify(data.Value(match.Row, model.ColumnClient)),
		Data:    data,
		Schema:  built,
		Issues:  issues,
		widgets: p.widgets,
	}, nil
}

// Record returns the caller's row.
func (s *Session) Record() model.Row {
	return s.Data.Rows[s.Row]
}

// Revision returns the stored revision of the record, empty when the Data
// table has no Revision column.
func (s *Session) Revision() string {
	if !s.Data.HasColumn(model.ColumnRevision) {
		return ""
	}
	return model.Stringify(s.Data.Value(s.Row, model.ColumnRevision))
}

// Form builds the page for tab. Unknown or empty tabs fall back to the first
// tab. Display strings are left for render.Localize.
func (s *Session) Form(tab string) (render.Page, error) {
	page := render.Page{
		Client:   s.Client,
		Revision: s.Revision(),
	}

	active, ok := s.Schema.ResolveTab(tab)
	if !ok {
		return page, nil
	}
	page.Tab = active
	for _, name := range s.Schema.Tabs {
		page.Tabs = append(page.Tabs, render.TabLink{Name: name, Active: name == active})
	}

	for _, field := range s.Schema.FieldsForTab(active) {
		control, err := s.widgets.Prefill(field, s.Data.Value(s.Row, field.Column))
		if err != nil {
			return render.Page{}, fmt.Errorf("portal: field %q: %w", field.Column, err)
		}
		page.Controls = append(page.Controls, control)
	}
	return page, nil
}

// Refill replaces control values with submitted form values so a rejected
// submission re-renders what the user typed.
func (s *Session) Refill(page render.Page, form url.Values) render.Page {
	out := page
	out.Controls = make([]widgets.Control, 0, len(page.Controls))
	for _, control := range page.Controls {
		field := model.FieldDefinition{
			Tab:      page.Tab,
			Column:   control.Column,
			Label:    control.Label,
			Type:     control.Type,
			Position: control.Position,
		}
		for _, option := range control.Options {
			field.Options = append(field.Options, option.Value)
		}

		var cell any
		if control.Type == model.FieldTypeCheckbox {
			cell, _ = s.widgets.Parse(field, form[control.Column])
		} else {
			cell = form.Get(control.Column)
		}
		refilled, err := s.widgets.Prefill(field, cell)
		if err != nil {
			out.Controls = append(out.Controls, control)
			continue
		}
		if control.Type == model.FieldTypeNumber {
			refilled.Text = form.Get(control.Column)
		}
		refilled.Errors = control.Errors
		out.Controls = append(out.Controls, refilled)
	}
	return out
}

// SaveResult describes a completed save.
type SaveResult struct {
	Tab      string
	Row      int
	Values   map[string]any
	Revision string
}

// Save parses a form-encoded submission for tab and writes it back. Every
// field of the tab is written; an absent checkbox means unchecked. The
// reserved _revision value, when present, must match the stored revision.
func (p *Portal) Save(ctx context.Context, token, tab string, form url.Values) (*SaveResult, error) {
	return p.save(ctx, saveRequest{
		token:    token,
		tab:      tab,
		revision: form.Get(render.FieldRevision),
		parse: func(field model.FieldDefinition) (any, bool, error) {
			value, err := p.widgets.Parse(field, form[field.Column])
			return value, true, err
		},
	})
}

// SaveJSON writes a decoded JSON object for tab. Only the keys present are
// written. The payload is validated against the tab's OpenAPI schema first.
func (p *Portal) SaveJSON(ctx context.Context, token, tab string, payload map[string]any, revision string) (*SaveResult, error) {
	return p.save(ctx, saveRequest{
		token:    token,
		tab:      tab,
		revision: revision,
		validate: func(s *Session, tab string) map[string][]string {
			return s.Schema.ValidatePayload(tab, payload)
		},
		parse: func(field model.FieldDefinition) (any, bool, error) {
			raw, ok := payload[field.Column]
			if !ok {
				return nil, false, nil
			}
			value, err := p.widgets.Decode(field, raw)
			return value, true, err
		},
	})
}

type saveRequest struct {
	token    string
	tab      string
	revision string
	validate func(s *Session, tab string) map[string][]string
	parse    func(field model.FieldDefinition) (value any, present bool, err error)
}

func (p *Portal) save(ctx context.Context, req saveRequest) (*SaveResult, error) {
	session, err := p.Open(ctx, req.token)
	if err != nil {
		return nil, err
	}

	active, ok := session.Schema.ResolveTab(req.tab)
	if !ok {
		return nil, &ValidationError{Tab: req.tab, Fields: map[string][]string{"": {"no tabs are configured"}}}
	}

	if current := session.Revision(); req.revision != "" && session.Data.HasColumn(model.ColumnRevision) && req.revision != current {
		return nil, fmt.Errorf("%w: submitted %q, stored %q", ErrConflict, req.revision, current)
	}

	verr := &ValidationError{Tab: active}
	if req.validate != nil {
		for column, messages := range req.validate(session, active) {
			for _, message := range messages {
				verr.add(column, message)
			}
		}
		if !verr.empty() {
			return nil, verr
		}
	}

	values := make(map[string]any)
	var order []string
	for _, field := range session.Schema.FieldsForTab(active) {
		value, present, err := req.parse(field)
		if err != nil {
			verr.add(field.Column, err.Error())
			continue
		}
		if !present {
			continue
		}
		if _, seen := values[field.Column]; !seen {
			order = append(order, field.Column)
		}
		values[field.Column] = value
	}
	if !verr.empty() {
		return nil, verr
	}

	data := session.Data
	for _, column := range order {
		if err := data.Set(session.Row, column, values[column]); err != nil {
			return nil, fmt.Errorf("portal: set %q: %w", column, err)
		}
	}

	stamped := ""
	if data.HasColumn(model.ColumnRevision) {
		stamped, err = p.newRevision()
		if err != nil {
			return nil, err
		}
		if err := data.Set(session.Row, model.ColumnRevision, stamped); err != nil {
			return nil, fmt.Errorf("portal: set revision: %w", err)
		}
	}

	if err := p.gateway.WriteTable(ctx, p.dataTable, data); err != nil {
		return nil, backendError("write", p.dataTable, err)
	}

	p.logger.Info("record saved",
		zap.String("table", p.dataTable),
		zap.Int("row", session.Row),
		zap.String("tab", active),
		zap.Int("fields", len(order)),
	)

	event := events.RecordSaved{
		Table:    p.dataTable,
		Row:      session.Row,
		Client:   session.Client,
		Tab:      active,
		Revision: stamped,
		Values:   values,
		SavedAt:  p.now().UTC(),
	}
	if err := p.publisher.Publish(ctx, events.TopicRecordSaved, event); err != nil {
		p.logger.Warn("publish save event failed", zap.Error(err))
	}

	return &SaveResult{Tab: active, Row: session.Row, Values: values, Revision: stamped}, nil
}
