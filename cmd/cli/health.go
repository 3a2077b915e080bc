package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/sentinel/internal/domain/models"
)

func newHealthCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show detector health",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/health")
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), data)
			}

			var health models.Health
			if err := json.Unmarshal(data, &health); err != nil {
				return writeJSON(cmd.OutOrStdout(), data)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Status:\t%s\n", health.Status)
			fmt.Fprintf(tw, "Events processed:\t%d\n", health.EventsProcessed)
			profiles := fmt.Sprintf("%d / %d", health.ActiveProfiles, health.MaxProfiles)
			if health.AtCapacity {
				profiles += " (at capacity)"
			}
			fmt.Fprintf(tw, "Profiles:\t%s\n", profiles)
			fmt.Fprintf(tw, "Uptime:\t%s\n", time.Duration(health.UptimeSeconds)*time.Second)
			return tw.Flush()
		},
	}
}
