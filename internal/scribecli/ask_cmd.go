package scribecli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Envelope is the ask-AI result returned by the bridge.
type Envelope struct {
	Success    bool        `json:"success"`
	Error      bool        `json:"error"`
	Format     string      `json:"format,omitempty"`
	Response   interface{} `json:"response,omitempty"`
	Warning    string      `json:"warning,omitempty"`
	Message    string      `json:"message,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

var (
	askSession     string
	askContent     string
	askContentType string
	askFallbacks   bool
	questionSess   string
)

// sessionOrDefault falls back to the context's default session.
func sessionOrDefault(flag string, ctx *Context) string {
	if flag != "" {
		return flag
	}
	return ctx.SessionID
}

var askCmd = &cobra.Command{
	Use:   "ask <command text>",
	Short: "Send an ask-AI prompt for a session",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, ctx, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		sessionID := sessionOrDefault(askSession, ctx)
		if sessionID == "" || askContent == "" {
			exitWithError(cmd, fmt.Errorf("--session and --content are required"))
			return
		}
		payload := map[string]string{
			"session_id":      sessionID,
			"ai_command_text": strings.Join(args, " "),
			"content":         askContent,
		}
		path := "/ask_heidi"
		if askFallbacks {
			path = "/ask_heidi_enhanced"
		} else if askContentType != "" {
			payload["content_type"] = askContentType
		}
		var env Envelope
		if err := client.PostJSON(cmd.Context(), path, payload, &env); err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, env); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		if env.Warning != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", env.Warning)
		}
		fmt.Fprintln(cmd.OutOrStdout(), describe(env.Response))
	},
}

var questionCmd = &cobra.Command{
	Use:   "question <text>",
	Short: "Ask a patient question with the care-assistant prompt",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, ctx, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		payload := map[string]string{"question": strings.Join(args, " ")}
		if sid := sessionOrDefault(questionSess, ctx); sid != "" {
			payload["session_id"] = sid
		}
		var resp struct {
			Response  string `json:"response"`
			SessionID string `json:"session_id"`
			Format    string `json:"response_format"`
		}
		if err := client.PostJSON(cmd.Context(), "/ask-question", payload, &resp); err != nil {
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
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", resp.SessionID, resp.Response)
	},
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "Session id (defaults to the context session)")
	askCmd.Flags().StringVar(&askContent, "content", "", "Content the command applies to")
	askCmd.Flags().StringVar(&askContentType, "content-type", "", "Content type: MARKDOWN|TEXT|PLAIN_TEXT")
	askCmd.Flags().BoolVar(&askFallbacks, "fallbacks", false, "Try each content type until one succeeds")
	questionCmd.Flags().StringVar(&questionSess, "session", "", "Session id (a new one is created when empty)")
}
