package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tenantline/tenantline-console/internal/config"
)

func init() { //nolint: gochecknoinits
	dumpCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")
	dumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "Dump as JSON instead of TOML")

	rootCmd.AddCommand(dumpCmd)
}

var (
	dumpJSON bool

	dumpCmd = &cobra.Command{
		Use:   "dump-config",
		Short: "Print the effective configuration after file and env merging",
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := config.ReadConfig(configPath)
			if err != nil {
				return err
			}

			var out string

			if dumpJSON {
				out, err = config.DumpConfigJSON(&c)
			} else {
				out, err = config.DumpConfig(&c)
			}

			if err != nil {
				return err
			}

			fmt.Print(out)

			return nil
		},
	}
)
