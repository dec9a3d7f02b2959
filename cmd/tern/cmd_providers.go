package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(providersCmd)
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and which one is active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := buildRegistry()
		if err := requireProviders(reg); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, " \tNAME\tMODEL\tBASE URL\tCONFIG")
		for _, p := range reg.Providers() {
			marker := " "
			if p.Name() == reg.ActiveName() {
				marker = "*"
			}

			state := "ok"
			if v := p.ValidateConfig(); !v.Valid {
				state = strings.Join(v.Errors, "; ")
			} else if len(v.Warnings) > 0 {
				state = strings.Join(v.Warnings, "; ")
			}

			cfg := p.Config()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, cfg.Name, cfg.Model, cfg.BaseURL, state)
		}
		return w.Flush()
	},
}
