package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tradyfit/backend/internal/panel"
	"tradyfit/backend/internal/panel/htmlview"
	"tradyfit/backend/internal/panel/termview"
	"tradyfit/backend/internal/urls"
)

func refreshCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh [category]",
		Short: "Fetch one category and print the message panel",
		Long: `Fetch one category (unread, inbox, received or sent) and print the
resulting panel. With --html the panel is rendered into the HTML template
instead of the terminal.

Usage:
  msgpanel refresh inbox
  msgpanel refresh sent --html
  msgpanel refresh unread --no-summary`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd, flags, args)
		},
	}
	cmd.Flags().Bool("html", false, "render the panel as HTML")
	return cmd
}

func runRefresh(cmd *cobra.Command, flags *globalFlags, args []string) error {
	asHTML, _ := cmd.Flags().GetBool("html")

	panelCfg, cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	category := panelCfg.Category
	if len(args) == 1 {
		category = args[0]
	}

	log := newLogger(cfg, false)
	defer log.Sync() //nolint:errcheck

	var view panel.View
	var render func(io.Writer) error
	if asHTML {
		doc := htmlview.New()
		view = panel.View{Container: doc, Summary: doc}
		render = doc.Render
	} else {
		tv := termview.New()
		view = panel.View{Container: tv, Summary: tv}
		render = func(w io.Writer) error {
			_, err := io.WriteString(w, tv.Render(true))
			return err
		}
	}

	refresher, err := panel.NewRefresher(
		panel.NewClient(panelCfg.BaseURL, panelCfg.Token, panelCfg.Timeout),
		urls.NewGenerator(panelCfg.BaseURL),
		view,
		panel.Options{UpdateSummaryFields: panelCfg.UpdateSummaryFields},
		log,
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), panelCfg.Timeout)
	defer cancel()

	_, refreshErr := refresher.RefreshSync(ctx, category)
	if err := render(os.Stdout); err != nil {
		return err
	}
	if refreshErr != nil {
		return fmt.Errorf("refresh %s: %w", category, refreshErr)
	}
	return nil
}
