package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-wikiform/pkg/entity"
	"github.com/goliatone/go-wikiform/pkg/orchestrator"
	"github.com/goliatone/go-wikiform/pkg/render"
	"github.com/goliatone/go-wikiform/pkg/renderers/tui"
	"github.com/goliatone/go-wikiform/pkg/renderers/vanilla"
)

var (
	itemID       string
	forceRefresh bool
	rendererName string
	sections     string
	properties   string
	sessionID    string
	submitForm   bool
	maxAttempts  int
)

var schemaCmd = &cobra.Command{
	Use:   "schema <entity-type>",
	Short: "Print the inferred schema of an entity type as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, session, err := openSession(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(session)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [entity-type]",
	Short: "Render a create form, or an edit form with --item",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, session, err := openSession(cmd.Context(), firstArg(args), false)
		if err != nil {
			return err
		}
		output, _, err := o.Render(cmd.Context(), session, rendererName, render.RenderOptions{
			Subset: render.ParseSubset(sections, properties),
		})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(output)
		return err
	},
}

var fillCmd = &cobra.Command{
	Use:   "fill [entity-type]",
	Short: "Fill a form interactively in the terminal",
	Long: `Prompts for every field of a create form, or an edit form with --item, and
prints the collected form state. With --submit the state is turned into an
entity edit and sent through the write proxy; validation failures prompt again
with the previous answers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFill,
}

func init() {
	for _, c := range []*cobra.Command{schemaCmd, renderCmd, fillCmd} {
		c.Flags().BoolVar(&forceRefresh, "refresh", false, "bypass the schema cache")
	}
	for _, c := range []*cobra.Command{renderCmd, fillCmd} {
		c.Flags().StringVar(&itemID, "item", "", "edit an existing item (Q-id)")
	}
	renderCmd.Flags().StringVarP(&rendererName, "renderer", "r", vanilla.Name, "renderer name (vanilla or json)")
	renderCmd.Flags().StringVar(&sections, "sections", "", "comma separated sections to render")
	renderCmd.Flags().StringVar(&properties, "properties", "", "comma separated property ids to render")

	fillCmd.Flags().BoolVar(&submitForm, "submit", false, "submit the answers through the write proxy")
	fillCmd.Flags().StringVar(&sessionID, "session", os.Getenv("WIKIFORM_SESSION"), "proxy session id used with --submit")
	fillCmd.Flags().IntVar(&maxAttempts, "attempts", 3, "prompt rounds before giving up on validation failures")
}

// openSession loads the configuration, builds an orchestrator and opens a
// create or edit session.
func openSession(ctx context.Context, entityType string, submitter bool) (*orchestrator.Orchestrator, orchestrator.FormSession, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, orchestrator.FormSession{}, err
	}
	var opts buildOptions
	if submitter {
		sub, err := newSubmitter(cfg, nil)
		if err != nil {
			return nil, orchestrator.FormSession{}, err
		}
		opts.submitter = sub
	}
	o, err := newOrchestrator(cfg, opts)
	if err != nil {
		return nil, orchestrator.FormSession{}, err
	}

	var session orchestrator.FormSession
	switch {
	case itemID != "":
		session, err = o.OpenEdit(ctx, itemID, forceRefresh)
	case entityType != "":
		session, err = o.OpenCreate(ctx, entityType, forceRefresh)
	default:
		err = fmt.Errorf("an entity type or --item is required (known types: %v)", o.EntityTypes())
	}
	if err != nil {
		return nil, orchestrator.FormSession{}, err
	}
	logger.Debug("form session opened",
		zap.String("mode", string(session.Mode)),
		zap.String("entityType", session.EntityType),
		zap.String("exemplar", session.ExemplarID),
		zap.Int("properties", len(session.Schema.Properties)),
	)
	return o, session, nil
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	o, session, err := openSession(ctx, firstArg(args), submitForm)
	if err != nil {
		return err
	}

	var answers url.Values
	prompter, err := tui.New(
		tui.WithOutputFormat(tui.OutputFormatPrettyText),
		tui.WithTerminal(tui.Terminal{Out: stdout(cmd), Err: cmd.ErrOrStderr()}),
		tui.WithAnswersHook(func(values url.Values) (url.Values, error) {
			answers = values
			return values, nil
		}),
		tui.WithTheme(tui.Theme{ErrorPrefix: "✗ "}),
	)
	if err != nil {
		return err
	}
	if err := o.Registry().Register(prompter); err != nil {
		return err
	}

	opts := render.RenderOptions{}
	for attempt := 1; ; attempt++ {
		summary, _, err := o.Render(ctx, session, tui.Name, opts)
		if err != nil {
			return err
		}
		if !submitForm {
			_, err = cmd.OutOrStdout().Write(summary)
			return err
		}

		result, err := o.Submit(ctx, session, answers, sessionID)
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", result.EntityID)
			return nil
		}
		var verr *entity.ValidationError
		if !errors.As(err, &verr) || attempt >= maxAttempts {
			return err
		}
		logger.Debug("submission rejected by validation", zap.Int("attempt", attempt), zap.Error(err))
		opts = render.RenderOptions{Values: answers, Errors: verr.Fields()}
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// stdout is the command's output when it is a terminal file, so prompts can
// drive it; anything else falls back to os.Stdout.
func stdout(cmd *cobra.Command) *os.File {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return f
	}
	return os.Stdout
}
