package main

import (
	"github.com/spf13/cobra"

	"github.com/raidrec/raidrec-go/internal/config"
)

var (
	// global flags
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "raidrec",
	Short: "Automatic World of Warcraft raid and Mythic+ recording",
	Long: `raidrec watches the WoW combat log and drives an external recording
service: a recording starts when a boss pull or keystone run begins and
is stopped, renamed and filed away when it ends.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"Config file (default ~/.config/raidrec/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}

// loadConfig loads the effective configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}
