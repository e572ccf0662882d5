package render

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONRenderer emits the prepared page model. It backs the JSON API and is
// handy for debugging templates.
type JSONRenderer struct {
	Indent bool
}

// Name implements Renderer.
func (JSONRenderer) Name() string { return "json" }

// ContentType implements Renderer.
func (JSONRenderer) ContentType() string { return "application/json; charset=utf-8" }

// Render implements Renderer.
func (r JSONRenderer) Render(ctx context.Context, page Page, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prepared := Prepare(page, options)
	var (
		out []byte
		err error
	)
	if r.Indent {
		out, err = json.MarshalIndent(prepared, "", "  ")
	} else {
		out, err = json.Marshal(prepared)
	}
	if err != nil {
		return nil, fmt.Errorf("render: encode page: %w", err)
	}
	return out, nil
}
