// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bandsync",
	Short: "BandSync is the coordination backend for bands and music groups",
	Long: `BandSync is the coordination backend for bands and music groups.
It serves authentication, group membership, calendar events, setlists,
chat and finances to the BandSync mobile clients.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
