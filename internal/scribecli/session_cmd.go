package scribecli

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch an upstream JWT through the bridge",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		var resp struct {
			JWT string `json:"jwt"`
		}
		if err := client.GetJSON(cmd.Context(), "/get-token", &resp); err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, resp); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.JWT)
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Create or inspect upstream sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new session",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		var resp struct {
			SessionID string `json:"session_id"`
		}
		if err := client.PostJSON(cmd.Context(), "/sessions", nil, &resp); err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, resp); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created session %s\n", resp.SessionID)
	},
}

var sessionGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a session document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		var doc json.RawMessage
		if err := client.GetJSON(cmd.Context(), "/sessions/"+url.PathEscape(args[0]), &doc); err != nil {
			exitWithError(cmd, err)
			return
		}
		// Session documents have no stable shape; both formats print JSON.
		if err := printJSON(cmd.OutOrStdout(), doc); err != nil {
			exitWithError(cmd, err)
		}
	},
}

func init() {
	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionGetCmd)
}
