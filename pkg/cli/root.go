// Package cli holds the shipper commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shipper",
	Short: "Shipper creates USPS shipping labels through EasyPost",
	Long:  `Shipper serves a three-step form (sender, recipient, package) and buys the cheapest USPS label for it.`,
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
