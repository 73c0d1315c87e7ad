package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tradyfit/backend/internal/panel"
	"tradyfit/backend/internal/panel/termview"
	"tradyfit/backend/internal/urls"
)

func watchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [category]",
		Short: "Interactive panel that refreshes on live updates",
		Long: `Open an interactive message panel. The panel subscribes to the server's
websocket and refreshes the current category whenever a new message arrives
or the counters change.

Keys: 1 unread, 2 inbox, 3 sent, r refresh, l toggle links, q quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags, args)
		},
	}
}

func runWatch(cmd *cobra.Command, flags *globalFlags, args []string) error {
	panelCfg, cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	initial := panelCfg.Category
	if len(args) == 1 {
		initial = args[0]
	}

	log := newLogger(cfg, true)
	defer log.Sync() //nolint:errcheck

	view := termview.New()
	refresher, err := panel.NewRefresher(
		panel.NewClient(panelCfg.BaseURL, panelCfg.Token, panelCfg.Timeout),
		urls.NewGenerator(panelCfg.BaseURL),
		panel.View{Container: view, Summary: view},
		panel.Options{UpdateSummaryFields: panelCfg.UpdateSummaryFields},
		log,
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	category := termview.NewCategory(initial)
	program := tea.NewProgram(termview.NewModel(ctx, refresher, view, category), tea.WithAltScreen())

	watcher, err := panel.NewWatcher(panelCfg.BaseURL, panelCfg.Token, refresher, category.Get, log)
	if err != nil {
		return err
	}
	watcher.OnRefresh(func(p *panel.Pending) {
		go func() {
			resp, err := p.Wait(ctx)
			program.Send(termview.RefreshedMsg{Resp: resp, Err: err})
		}()
	})

	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("live updates stopped", zap.Error(err))
		}
	}()

	_, err = program.Run()
	return err
}
