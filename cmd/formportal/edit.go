package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/goliatone/go-formportal/internal/app"
	"github.com/goliatone/go-formportal/pkg/portal"
	"github.com/goliatone/go-formportal/pkg/render"
	"github.com/goliatone/go-formportal/pkg/renderers/tui"
)

// maxEditAttempts bounds how often a rejected submission is prompted again.
const maxEditAttempts = 3

type editDeps struct {
	isTerminal func() bool
	driver     tui.PromptDriver
}

func defaultEditDeps() editDeps {
	return editDeps{
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

func newEditCmd(opts *rootOptions, deps editDeps) *cobra.Command {
	var (
		token  string
		tab    string
		format string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a client record in the terminal",
		Long: `Prompts for every field on a tab, pre-filled with the stored values,
and saves the answers back to the Data worksheet.

With --dry-run the answers are printed in --format instead of saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.isTerminal != nil && !deps.isTerminal() {
				return errors.New("edit needs an interactive terminal")
			}

			outputFormat := tui.OutputFormatJSON
			if dryRun {
				switch tui.OutputFormat(format) {
				case tui.OutputFormatJSON, tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
					outputFormat = tui.OutputFormat(format)
				default:
					return fmt.Errorf("unknown format %q (want json, form or pretty)", format)
				}
			}

			cfg, logger, err := opts.load(true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			a, err := app.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			renderer, err := tui.New(
				tui.WithPromptDriver(deps.driver),
				tui.WithOutput(out),
				tui.WithOutputFormat(outputFormat),
				tui.WithTheme(tui.Theme{ErrorPrefix: "! "}),
			)
			if err != nil {
				return err
			}

			var fieldErrors map[string][]string
			for attempt := 0; attempt < maxEditAttempts; attempt++ {
				page, revision, err := openPage(cmd, a, token, tab)
				if err != nil {
					return err
				}

				answers, err := renderer.Render(ctx, page, render.RenderOptions{Errors: fieldErrors})
				if errors.Is(err, tui.ErrAborted) {
					fmt.Fprintln(out, "Aborted, nothing saved.")
					return nil
				}
				if err != nil {
					return err
				}

				if dryRun {
					fmt.Fprintln(out, string(answers))
					return nil
				}

				var payload map[string]any
				if err := json.Unmarshal(answers, &payload); err != nil {
					return fmt.Errorf("decode answers: %w", err)
				}

				result, err := a.Portal.SaveJSON(ctx, token, page.Tab, payload, revision)
				var verr *portal.ValidationError
				if errors.As(err, &verr) {
					fieldErrors = verr.Fields
					tab = page.Tab
					continue
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "Saved %d field(s) on %s.\n", len(result.Values), result.Tab)
				return nil
			}
			return fmt.Errorf("submission rejected %d times, nothing saved", maxEditAttempts)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "client token (required)")
	cmd.Flags().StringVar(&tab, "tab", "", "tab to edit (defaults to the first tab)")
	cmd.Flags().StringVar(&format, "format", string(tui.OutputFormatJSON), "dry-run output format: json, form or pretty")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the answers instead of saving")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

// openPage loads the tab for token. Denials are reported with the same
// message the portal page shows.
func openPage(cmd *cobra.Command, a *app.App, token, tab string) (render.Page, string, error) {
	session, err := a.Portal.Open(cmd.Context(), token)
	if err != nil {
		return render.Page{}, "", denialError(err)
	}
	page, err := session.Form(tab)
	if err != nil {
		return render.Page{}, "", err
	}
	return page, session.Revision(), nil
}

func denialError(err error) error {
	switch {
	case errors.Is(err, portal.ErrAccessDenied):
		return fmt.Errorf("%s: %w", denialMessage(render.DenialAccess), err)
	case errors.Is(err, portal.ErrInvalidToken), errors.Is(err, portal.ErrDuplicateToken):
		return fmt.Errorf("%s: %w", denialMessage(render.DenialInvalidToken), err)
	default:
		return err
	}
}

func denialMessage(reason render.Denial) string {
	return render.Prepare(render.DeniedPage(reason), render.RenderOptions{}).Message
}
