package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/khankhulgun/maplayers/logging"
	"github.com/khankhulgun/maplayers/menu"
)

func (c *CLI) menuCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Open the terminal layer menu",
		Long: `Open the terminal layer menu. With --server the menu drives a running
maplayers server, otherwise it runs its own map session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server != "" {
				return menu.Run(menu.NewClient(server))
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			_, overlays, err := c.loadOverlays(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			// the menu owns the terminal
			logging.FromContext(cmd.Context()).SetOutput(io.Discard)
			layers, err := c.newLayers(cmd.Context(), cfg, overlays)
			if err != nil {
				return err
			}
			return menu.Run(menu.Local{Controller: layers})
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "base URL of a running server, e.g. http://localhost:8080")
	return cmd
}
