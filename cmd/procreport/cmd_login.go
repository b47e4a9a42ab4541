package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"procreport/internal/graph"
	"procreport/internal/wiring"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Microsoft Graph and cache the token",
	Long: `Runs the OAuth2 device-code flow for graph.client_id and stores the token
in graph.token_cache. Later runs refresh it without interaction.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, _ []string) error {
	auth := wiring.AuthConfig(loaded)
	tok, err := graph.DeviceLogin(cmd.Context(), auth, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in. Token cached at %s (expires %s)\n",
		auth.CachePath, tok.Expiry.Format("2006-01-02 15:04"))
	return nil
}
