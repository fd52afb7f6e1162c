package scribecli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

// EventEnvelope mirrors the SSE payload emitted by /events.
type EventEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Stream bridge events until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		seen := 0
		err = client.StreamEvents(ctx, func(evt EventEnvelope) bool {
			if outputFormat == "json" {
				_ = printJSON(cmd.OutOrStdout(), evt)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s %s\n", formatTimestamp(evt.Timestamp), evt.Type, string(evt.Data))
			}
			seen++
			return eventsLimit <= 0 || seen < eventsLimit
		})
		if err != nil && err != context.Canceled {
			exitWithError(cmd, err)
		}
	},
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "Stop after this many events (0 streams forever)")
}
