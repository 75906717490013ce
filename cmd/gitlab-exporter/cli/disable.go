package cli

import (
	"fmt"

	"github.com/davarch/gitlab-exporter/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var disableCmd = &cobra.Command{
	Use:   "disable <slug>",
	Short: "Disable project by slug in config.yaml",
	Args:  cobra.MatchAll(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := args[0]
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		changed := false
		for i := range cfg.Poll.Projects {
			if cfg.Poll.Projects[i].Slug == slug {
				if cfg.Poll.Projects[i].Enabled {
					cfg.Poll.Projects[i].Enabled = false
					changed = true
				}
			}
		}

		if !changed {
			fmt.Printf("no change (project %q already disabled or not found)\n", slug)
			return nil
		}

		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}

		fmt.Printf("disabled: %s\n", slug)
		return nil
	},
}

func init() {
	disableCmd.ValidArgsFunction = completeSlugs

	rootCmd.AddCommand(disableCmd)
}
