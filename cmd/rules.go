package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/claimsight/denials-cli/internal/engine"
)

var (
	rulesPath string
	rulesJSON bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the active root-cause rule catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := engine.DefaultCatalog()
		if rulesPath != "" {
			loaded, err := engine.LoadCatalog(rulesPath)
			if err != nil {
				return err
			}
			catalog = loaded
		} else if cfg.Engine.RulesPath != "" {
			loaded, err := engine.LoadCatalog(cfg.Engine.RulesPath)
			if err != nil {
				return err
			}
			catalog = loaded
		}
		if err := catalog.Validate(); err != nil {
			return err
		}

		if rulesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(catalog)
		}

		fmt.Printf("Catalog version: %s (%d rules)\n\n", catalog.Version, len(catalog.Rules))
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tKIND\tCATEGORY\tCONF\tTHRESHOLD\tENABLED")
		for _, rule := range catalog.Rules {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%t\n",
				rule.ID, rule.Kind, rule.Category, rule.Confidence, rule.Threshold, !rule.Disabled)
		}
		return tw.Flush()
	},
}

func init() {
	rulesCmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rule catalog to show instead of the configured one")
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "emit the catalog as JSON")
	rootCmd.AddCommand(rulesCmd)
}
