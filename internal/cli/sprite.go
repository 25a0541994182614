package cli

import (
	"github.com/spf13/cobra"

	"github.com/khankhulgun/maplayers/logging"
)

func (c *CLI) spriteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sprite",
		Short: "Rebuild the overlay icon sprite sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			_, overlays, err := c.loadOverlays(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			url, err := c.buildSprite(cmd.Context(), cfg, overlays)
			if err != nil {
				return err
			}
			if url == "" {
				logging.FromContext(cmd.Context()).Info("no overlay icons, sprite not written")
				return nil
			}
			logging.FromContext(cmd.Context()).Info("sprite written", "url", url)
			return nil
		},
	}
}
