package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wirebird/tern/provider"
)

func init() {
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 30*time.Second, "overall probe deadline")
	rootCmd.AddCommand(healthCmd)
}

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every configured provider and report status and latency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := buildRegistry()
		if err := requireProviders(reg); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()

		reports := reg.HealthChecks(ctx)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tSTATUS\tLATENCY\tERROR")
		for _, r := range reports {
			detail := ""
			if r.Err != nil {
				detail = r.Err.Error()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				r.Provider,
				colorStatus(r.Status),
				r.Latency.Round(time.Millisecond),
				detail,
			)
		}
		return w.Flush()
	},
}

func colorStatus(s provider.HealthStatus) string {
	switch s {
	case provider.Healthy:
		return color.GreenString(s.String())
	case provider.Degraded:
		return color.YellowString(s.String())
	default:
		return color.RedString(s.String())
	}
}
