// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tenantline-console",
	Short: "Tenantline Console is the admin web console for the tenantline platform",
	Long: `Tenantline Console is the administrative web console for the tenantline
multi-tenant SaaS platform. It signs an operator in against the platform
backend and renders the modules their roles permit.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
