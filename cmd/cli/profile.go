package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/sentinel/internal/domain/models"
)

type profileOptions struct {
	tenant string
	client string
}

func profilePath(tenant, client string) string {
	p := "/api/v1/tenants/" + url.PathEscape(tenant) + "/profiles"
	if client != "" {
		p += "/" + url.PathEscape(client)
	}
	return p
}

func newProfileCommand(opts *globalOptions) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect and manage client profiles",
	}
	profileCmd.AddCommand(
		newProfileGetCommand(opts),
		newProfileListCommand(opts),
		newProfileCompromiseCommand(opts),
		newProfileResetCommand(opts),
	)
	return profileCmd
}

func addIdentityFlags(cmd *cobra.Command, p *profileOptions, withClient bool) {
	cmd.Flags().StringVar(&p.tenant, "tenant", "", "Tenant ID")
	_ = cmd.MarkFlagRequired("tenant")
	if withClient {
		cmd.Flags().StringVar(&p.client, "client", "", "Client ID")
		_ = cmd.MarkFlagRequired("client")
	}
}

func newProfileGetCommand(opts *globalOptions) *cobra.Command {
	p := &profileOptions{}
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show one client profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, profilePath(p.tenant, p.client))
			if err != nil {
				return err
			}
			return printProfile(cmd, opts, data)
		},
	}
	addIdentityFlags(cmd, p, true)
	return cmd
}

func newProfileListCommand(opts *globalOptions) *cobra.Command {
	p := &profileOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every profile of a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, profilePath(p.tenant, ""))
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), data)
			}

			var list struct {
				TenantID string                  `json:"tenant_id"`
				Count    int                     `json:"count"`
				Profiles []*models.ClientProfile `json:"profiles"`
			}
			if err := json.Unmarshal(data, &list); err != nil {
				return writeJSON(cmd.OutOrStdout(), data)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CLIENT\tLEVEL\tRISK\tEVENTS\tCOMPROMISED\tLAST SEEN")
			for _, pr := range list.Profiles {
				fmt.Fprintf(tw, "%s\t%s\t%.3f\t%d\t%t\t%s\n",
					pr.ClientID, pr.ThreatLevel, pr.RiskScore, pr.TotalEvents, pr.IsCompromised, pr.LastSeen.Format(time.RFC3339))
			}
			fmt.Fprintf(tw, "\n%d profile(s) in tenant %s\n", list.Count, list.TenantID)
			return tw.Flush()
		},
	}
	addIdentityFlags(cmd, p, false)
	return cmd
}

func newProfileCompromiseCommand(opts *globalOptions) *cobra.Command {
	p := &profileOptions{}
	cmd := &cobra.Command{
		Use:   "compromise",
		Short: "Mark a client compromised; all later events are blocked",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, profilePath(p.tenant, p.client)+"/compromise")
			if err != nil {
				return err
			}
			return printProfile(cmd, opts, data)
		},
	}
	addIdentityFlags(cmd, p, true)
	return cmd
}

func newProfileResetCommand(opts *globalOptions) *cobra.Command {
	p := &profileOptions{}
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete a client profile, clearing any compromise",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient(opts).do(cmd.Context(), http.MethodDelete, profilePath(p.tenant, p.client))
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), data)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %s/%s reset\n", p.tenant, p.client)
			return nil
		},
	}
	addIdentityFlags(cmd, p, true)
	return cmd
}

func printProfile(cmd *cobra.Command, opts *globalOptions, data json.RawMessage) error {
	if opts.asJSON {
		return writeJSON(cmd.OutOrStdout(), data)
	}
	var pr models.ClientProfile
	if err := json.Unmarshal(data, &pr); err != nil {
		return writeJSON(cmd.OutOrStdout(), data)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Tenant:\t%s\n", pr.TenantID)
	fmt.Fprintf(tw, "Client:\t%s\n", pr.ClientID)
	fmt.Fprintf(tw, "Threat level:\t%s\n", pr.ThreatLevel)
	fmt.Fprintf(tw, "Risk score:\t%.3f\n", pr.RiskScore)
	fmt.Fprintf(tw, "Events:\t%d\n", pr.TotalEvents)
	fmt.Fprintf(tw, "Avg confidence:\t%.3f\n", pr.AverageConfidence)
	fmt.Fprintf(tw, "Compromised:\t%t\n", pr.IsCompromised)
	fmt.Fprintf(tw, "First seen:\t%s\n", pr.FirstSeen.Format(time.RFC3339))
	fmt.Fprintf(tw, "Last seen:\t%s\n", pr.LastSeen.Format(time.RFC3339))
	return tw.Flush()
}
