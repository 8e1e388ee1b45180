package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"anime/catalog/internal/container"
	"anime/catalog/internal/controller"
	"anime/catalog/internal/domain"
	"anime/catalog/internal/render"
	"anime/catalog/internal/tui"
	"anime/catalog/internal/viewstate"

	log "github.com/sirupsen/logrus"
)

// cliPath is the address the CLI reports its canonical query against.
const cliPath = "/anime"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog view as a JSON API",
	Long: `Starts an HTTP server exposing:

  GET  /api/view      current view; preference keys in the query are applied
  POST /api/actions   {"actions":[{"type":"toggleSort","value":"score"}]}
  POST /api/reset     restore default preferences
  POST /api/refresh   fetch the current page again
  GET  /healthz`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog interactively",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Apply filter flags and print the current page",
	Example: `  catalog show --search bebop --min-score 8
  catalog show --type Movie --page 3
  catalog show --clear-scores`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

var sortCmd = &cobra.Command{
	Use:       "sort <title|score|airedFrom|type>",
	Short:     "Sort by a column; sorting by the current column flips the order",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"title", "score", "airedFrom", "type"},
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := domain.ParseSortField(args[0])
		if err != nil {
			return err
		}
		return runActions(cmd, viewstate.ToggleSort(field))
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Go to the next page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActions(cmd, viewstate.NextPage())
	},
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go to the previous page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActions(cmd, viewstate.PrevPage())
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActions(cmd, viewstate.Reset())
	},
}

func registerShowFlags(cmd *cobra.Command) {
	cmd.Flags().String("search", "", "Title substring filter (empty clears it)")
	cmd.Flags().Float64("min-score", 0, "Minimum score, 0 to 10")
	cmd.Flags().Float64("max-score", 0, "Maximum score, 0 to 10")
	cmd.Flags().String("type", "", "Type filter: TV, Movie, OVA, Special, ONA, Music (empty clears it)")
	cmd.Flags().Int("page", 0, "Page number")
	cmd.Flags().Bool("clear-scores", false, "Remove both score bounds")
}

// showActions turns the flags the user actually set into actions, in a fixed
// order so that --min-score and --max-score push each other predictably.
func showActions(cmd *cobra.Command) ([]viewstate.Action, error) {
	flags := cmd.Flags()
	var actions []viewstate.Action

	if flags.Changed("clear-scores") {
		if clear, _ := flags.GetBool("clear-scores"); clear {
			actions = append(actions, viewstate.ClearMinScore(), viewstate.ClearMaxScore())
		}
	}
	if flags.Changed("search") {
		text, _ := flags.GetString("search")
		actions = append(actions, viewstate.SetSearchText(text))
	}
	if flags.Changed("min-score") {
		v, _ := flags.GetFloat64("min-score")
		actions = append(actions, viewstate.SetMinScore(v))
	}
	if flags.Changed("max-score") {
		v, _ := flags.GetFloat64("max-score")
		actions = append(actions, viewstate.SetMaxScore(v))
	}
	if flags.Changed("type") {
		name, _ := flags.GetString("type")
		t, err := domain.ParseAnimeType(name)
		if err != nil {
			return nil, err
		}
		actions = append(actions, viewstate.SelectType(t))
	}
	if flags.Changed("page") {
		page, _ := flags.GetInt("page")
		if page < 1 {
			return nil, fmt.Errorf("page must be at least 1, got %d", page)
		}
		actions = append(actions, viewstate.SetPage(page))
	}
	return actions, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	var actions []viewstate.Action
	if cmd.Flags().Lookup("clear-scores") != nil {
		var err error
		if actions, err = showActions(cmd); err != nil {
			return err
		}
	}
	return runActions(cmd, actions...)
}

// runActions restores the stored preferences, applies actions as one
// update, waits for the page and prints it.
func runActions(cmd *cobra.Command, actions ...viewstate.Action) error {
	ctx := cmd.Context()

	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer app.Close()

	ctrl := app.Controller(cfg.Storage.Namespace, controller.NewAddress(cliPath))
	defer ctrl.Close()

	if err := ctrl.Restore(ctx, nil); err != nil {
		return err
	}
	if len(actions) > 0 {
		if _, err := ctrl.Dispatch(ctx, actions...); err != nil {
			return err
		}
	}
	ctrl.Wait()

	printView(cmd.OutOrStdout(), ctrl.View())
	return nil
}

func printView(w io.Writer, v controller.View) {
	fmt.Fprintf(w, "Page %d of %d\n", v.Preferences.Page, v.TotalPages)
	fmt.Fprintln(w, render.Table(v.Records, render.CompactColumns, v.Preferences, render.Layout{}))
	fmt.Fprintf(w, "%d of %d records shown\n", len(v.Records), v.Fetched)
	fmt.Fprintln(w, v.Location)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer app.Close()

	return app.Serve(ctx)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer app.Close()

	notifier := &tui.Notifier{}
	ctrl := app.Controller(cfg.Storage.Namespace, controller.NewAddress(cliPath), controller.WithNotify(notifier.Notify))
	defer ctrl.Close()

	if err := ctrl.Restore(ctx, nil); err != nil {
		return err
	}
	log.Info("Browser started")
	return tui.Run(ctx, ctrl, notifier, render.CompactColumns)
}
