package scribecli

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// CarePlan mirrors GET /care-plans/:session_id.
type CarePlan struct {
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
	CreatedAt time.Time   `json:"created_at"`
}

// AskRecord mirrors one GET /history entry.
type AskRecord struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Command     string    `json:"ai_command_text"`
	ContentType string    `json:"content_type"`
	Success     bool      `json:"success"`
	Format      string    `json:"format"`
	Message     string    `json:"message"`
	StatusCode  int       `json:"status_code"`
	CreatedAt   time.Time `json:"created_at"`
}

var carePlanCmd = &cobra.Command{
	Use:   "care-plan",
	Short: "Inspect stored care plans",
}

var carePlanGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show the care plan stored for a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		var plan CarePlan
		if err := client.GetJSON(cmd.Context(), "/care-plans/"+url.PathEscape(args[0]), &plan); err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, plan); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session: %s\nCreated: %s\n\n%s\n", plan.SessionID, formatTimestamp(plan.CreatedAt), describe(plan.Data))
	},
}

var (
	historySession string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent ask-AI exchanges",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		query := url.Values{}
		if historySession != "" {
			query.Set("session_id", historySession)
		}
		if historyLimit > 0 {
			query.Set("limit", strconv.Itoa(historyLimit))
		}
		path := "/history"
		if len(query) > 0 {
			path += "?" + query.Encode()
		}
		var resp struct {
			History []AskRecord `json:"history"`
		}
		if err := client.GetJSON(cmd.Context(), path, &resp); err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, resp.History); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		if len(resp.History) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No ask-AI history found.")
			return
		}
		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintf(tw, "TIME\tSESSION\tOK\tFORMAT\tCOMMAND\tMESSAGE\n")
		for _, rec := range resp.History {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%s\n", formatTimestamp(rec.CreatedAt), rec.SessionID, rec.Success, rec.Format, truncate(rec.Command, 40), rec.Message)
		}
		flushTable(tw)
	},
}

func init() {
	carePlanCmd.AddCommand(carePlanGetCmd)
	historyCmd.Flags().StringVar(&historySession, "session", "", "Only show this session")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum records to return")
}
