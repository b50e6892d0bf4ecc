package main

import (
	"os"

	_ "contact-mail-proxy/docs" // Important for Swagger

	"github.com/spf13/cobra"
)

// rootCmd runs the HTTP server when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "contact-mail-proxy",
	Short: "Contact form mail proxy",
	Long: `Receives website contact and service-request form submissions and
emails the business and the submitter through the configured transport.

Example:
  contact-mail-proxy                          # Run the HTTP server
  contact-mail-proxy check-config             # Validate the environment
  contact-mail-proxy send-test --to me@x.com  # Send one sample confirmation`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

// @title           Contact Mail Proxy API
// @version         1.0
// @description     Receives website contact and service-request forms and emails the business and the submitter.
// @host            localhost:8080
// @BasePath        /
func main() {
	rootCmd.AddCommand(checkConfigCmd)
	rootCmd.AddCommand(sendTestCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
