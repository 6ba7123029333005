package commands

import (
	"fmt"

	"product-console/config"
	"product-console/session"
	"product-console/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBrowseCommand(a *app) *cobra.Command {
	var prefilter bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive product browser",
		Long: `Open a full screen product browser with live search and filters.
Logs go to the configured log file while the browser is open. Logging in or
out from another terminal, and edits to the config file, are picked up
without restarting.`,
		Args: cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, args []string) {
			a.logToFile = true
		},
		RunE: runWithApp(a, func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list := a.newList(prefilter)
			defer list.Close()

			model := ui.New(ctx, list,
				ui.WithSessions(a.sessions),
				ui.WithLogger(a.log.Named("ui")),
			)
			p := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)

			if !a.ephemeral {
				w, err := session.Watch(a.cfg.Session.Path, a.log.Named("watcher"), func() {
					p.Send(ui.SessionChangedMsg{})
				})
				if err != nil {
					a.log.Warn("Session changes from other terminals will not be noticed", zap.Error(err))
				} else {
					defer w.Close()
				}
			}

			a.loader.SetLogger(a.log.Named("config"))
			a.loader.Subscribe(func(c *config.Config) {
				if c.API.Host == a.client.BaseURL() {
					return
				}
				if err := a.client.SetBaseURL(c.API.Host); err != nil {
					a.log.Error("Ignoring new backend address", zap.Error(err))
					return
				}
				p.Send(ui.HostChangedMsg{Host: c.API.Host})
			})
			a.loader.Watch()

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("browser: %w", err)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&prefilter, "server-filter", false, "let the backend narrow the listing first")
	return cmd
}
