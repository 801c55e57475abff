package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/meterplan/app"
	"github.com/kilianp07/meterplan/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "meterplan",
	Short: "Water meter replacement visit planner",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// newService loads the configuration and wires the service. The caller must
// Close it.
func newService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}
